// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sht4x

import (
	"context"
	"time"

	"github.com/GermanBionicSystems/hygrometer/common"
	"periph.io/x/conn/v3"
)

// frameSize is the length of every response: 2 bytes of data, a CRC, 2 bytes
// of data and a CRC.
const frameSize = 6

// state is the position of a transaction in the command/wait/read sequence.
type state int

const (
	stateIdle state = iota
	stateCommandSent
	stateAwaitingConversion
	stateResponseRead
	stateValidated
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateIdle:
		return "Idle"
	case stateCommandSent:
		return "CommandSent"
	case stateAwaitingConversion:
		return "AwaitingConversion"
	case stateResponseRead:
		return "ResponseRead"
	case stateValidated:
		return "Validated"
	case stateFailed:
		return "Failed"
	}
	return "state(?)"
}

// transaction is a single command byte written to the device followed, after
// delay, by a 6-byte CRC protected response. The device has no ready signal,
// so the delay must cover the conversion time of the command.
//
// A transaction is not reusable. The caller must hold the device guard.
type transaction struct {
	cmd   byte
	delay time.Duration

	state state
	frame [frameSize]byte
	words [2]uint16
	err   error
}

func newTransaction(cmd byte, delay time.Duration) *transaction {
	return &transaction{cmd: cmd, delay: delay}
}

// done reports whether the transaction reached a terminal state.
func (t *transaction) done() bool {
	return t.state == stateValidated || t.state == stateFailed
}

func (t *transaction) fail(err error) {
	t.err = err
	t.state = stateFailed
}

// step advances the transaction by exactly one state.
func (t *transaction) step(ctx context.Context, c conn.Conn) {
	switch t.state {
	case stateIdle:
		if err := ctx.Err(); err != nil {
			t.fail(err)
			return
		}
		if err := c.Tx([]byte{t.cmd}, nil); err != nil {
			t.fail(&TransportError{Op: "transmitting", Err: err})
			return
		}
		t.state = stateCommandSent
	case stateCommandSent:
		t.state = stateAwaitingConversion
		if err := sleep(ctx, t.delay); err != nil {
			t.fail(err)
		}
	case stateAwaitingConversion:
		if err := c.Tx(nil, t.frame[:]); err != nil {
			t.fail(&TransportError{Op: "reading", Err: err})
			return
		}
		t.state = stateResponseRead
	case stateResponseRead:
		for i := range t.words {
			off := 3 * i
			data, crc := t.frame[off:off+2], t.frame[off+2]
			if !common.VerifyCRC8(data, crc) {
				t.fail(&IntegrityError{Offset: off, Got: crc, Want: common.CRC8(data)})
				return
			}
			t.words[i] = uint16(t.frame[off])<<8 | uint16(t.frame[off+1])
		}
		t.state = stateValidated
	}
}

// run drives the transaction to a terminal state and returns the two
// validated words.
func (t *transaction) run(ctx context.Context, c conn.Conn) ([2]uint16, error) {
	for !t.done() {
		t.step(ctx, c)
	}
	if t.state == stateFailed {
		return [2]uint16{}, t.err
	}
	return t.words, nil
}

// sleep suspends for d, returning early with ctx.Err() if ctx is canceled.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
