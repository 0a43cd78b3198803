// Package rewriter is a thin client for the Binary Rewriter external
// service (spec.md §4.1/§6): a host-side component that parses a raw guest
// wasm module and emits an instrumented module whose every store, memory
// grow and global write is preceded by a call into one of three host
// callbacks. RiftCore treats the rewriter itself as an opaque collaborator
// — this package only drives its four-operation reserve-space ABI and does
// not reimplement wasm parsing/rewriting.
//
// Two helper services (§6) that are out of the core algorithm's scope are
// also exposed here because embedders need them: gzip encode/decode and
// 128-bit hashing over arbitrary byte slices. Both are implemented host-side
// (compress/gzip and xxhash) and do not call into the rewriter module.
package rewriter

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
)

// Service drives the rewriter wasm module's reserve_space/prepare_wasm/
// get_output ABI.
type Service struct {
	runtime  wazero.Runtime
	compiled wazero.CompiledModule
	guest    api.Module
}

// New compiles and instantiates the rewriter module described by
// rewriterWasm. The returned Service owns its own wazero runtime,
// independent of any guest VM's runtime, since the rewriter is invoked once
// by core.Bootstrap and then discarded.
func New(ctx context.Context, rewriterWasm []byte) (*Service, error) {
	rt := wazero.NewRuntime(ctx)
	compiled, err := rt.CompileModule(ctx, rewriterWasm)
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("rewriter: compile: %w", err)
	}
	guest, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	if err != nil {
		_ = rt.Close(ctx)
		return nil, fmt.Errorf("rewriter: instantiate: %w", err)
	}
	return &Service{runtime: rt, compiled: compiled, guest: guest}, nil
}

// Close releases the rewriter's wazero runtime.
func (s *Service) Close(ctx context.Context) error { return s.runtime.Close(ctx) }

// Rewrite drives the reserve_space/prepare_wasm/get_output ABI (spec.md §6)
// to turn rawGuest into an instrumented module.
func (s *Service) Rewrite(ctx context.Context, rawGuest []byte) ([]byte, error) {
	reserve := s.guest.ExportedFunction("reserve_space")
	prepare := s.guest.ExportedFunction("prepare_wasm")
	getPtr := s.guest.ExportedFunction("get_output_ptr")
	getLen := s.guest.ExportedFunction("get_output_len")
	if reserve == nil || prepare == nil || getPtr == nil || getLen == nil {
		return nil, fmt.Errorf("rewriter: module missing one of reserve_space/prepare_wasm/get_output_ptr/get_output_len")
	}

	res, err := reserve.Call(ctx, uint64(len(rawGuest)))
	if err != nil {
		return nil, fmt.Errorf("rewriter: reserve_space: %w", err)
	}
	inPtr := uint32(res[0])

	mem := s.guest.Memory()
	if ok := mem.Write(inPtr, rawGuest); !ok {
		return nil, fmt.Errorf("rewriter: writing %d raw guest bytes at %d out of range", len(rawGuest), inPtr)
	}

	if _, err := prepare.Call(ctx); err != nil {
		return nil, fmt.Errorf("rewriter: prepare_wasm: %w", err)
	}

	ptrRes, err := getPtr.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("rewriter: get_output_ptr: %w", err)
	}
	lenRes, err := getLen.Call(ctx)
	if err != nil {
		return nil, fmt.Errorf("rewriter: get_output_len: %w", err)
	}
	outPtr, outLen := uint32(ptrRes[0]), uint32(lenRes[0])

	out, ok := mem.Read(outPtr, outLen)
	if !ok {
		return nil, fmt.Errorf("rewriter: reading %d output bytes at %d out of range", outLen, outPtr)
	}
	return append([]byte(nil), out...), nil
}

// GzipEncode compresses data, matching the same gzip framing used for
// recorded scenario traces (see internal/scenario).
func GzipEncode(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		_ = gw.Close()
		return nil, fmt.Errorf("rewriter: gzip encode: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("rewriter: gzip encode: close: %w", err)
	}
	return buf.Bytes(), nil
}

// GzipDecode decompresses data produced by GzipEncode.
func GzipDecode(data []byte) ([]byte, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("rewriter: gzip decode: %w", err)
	}
	defer gr.Close()
	out, err := io.ReadAll(gr)
	if err != nil {
		return nil, fmt.Errorf("rewriter: gzip decode: %w", err)
	}
	return out, nil
}
