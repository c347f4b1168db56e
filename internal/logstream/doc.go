// Package logstream is the consumption facade over one poll engine.
//
// A Reader exposes the same ordered entry stream two ways: Next is a
// blocking pull that returns one entry per call, and All is a lazy
// iter.Seq2 for range loops. Both draw from the same engine, so a caller
// can mix them, but a Reader serves one consumer at a time. Close may be
// called from any goroutine to end the stream.
package logstream
