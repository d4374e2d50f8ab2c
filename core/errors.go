package core

import "errors"

var (
	// ErrClosed indicates the engine has been torn down.
	ErrClosed = errors.New("engine closed")
	// ErrBatchSuperseded indicates an ingestion batch finished after the
	// engine was closed or a newer batch started; its results were dropped.
	ErrBatchSuperseded = errors.New("ingest batch superseded")
	// ErrNoFrameHook indicates Start was called without a host frame hook.
	ErrNoFrameHook = errors.New("host has no frame hook")
)
