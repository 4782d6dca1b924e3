/*
 * avrdude-core - Urclock/urboot wire protocol bytes (spec §4.6, §6).
 *
 * Copyright 2024, Richard Cornwell
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in
 * all copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

// Package urclock implements the Urclock/urboot bootloader wire protocol:
// a small, variable-sync-byte STK500 dialect with feature discovery, an
// optional metadata trailer below the bootloader, and chip-erase
// emulation for bootloaders too small to carry their own (spec §4.6).
// The package exposes both the protocol mechanics (sync, addressing,
// commands, metadata, bootloader discovery) and a programmer.Backend
// adapter so the generic engine can drive an Urclock target the same way
// it drives any other back-end.
package urclock

import "time"

// Command bytes, bit-exact per spec §6.
const (
	cmdGetSync     byte = 0x30
	cmdLoadAddress byte = 0x55
	cmdProgPage    byte = 0x64
	cmdReadPage    byte = 0x74
	cmdChipErase   byte = 0xAC
	cmdPageErase   byte = 0x52 // Urclock-specific, not classic STK500v1.
	cmdLeaveProgmode byte = 0x51
	cmdEOP         byte = 0x20

	// Urprotocol distinguishes its paged transfer opcodes from the
	// classic STK500v1 PROG_PAGE/READ_PAGE so a urboot bootloader can
	// recognise which addressing/length convention the host is using.
	cmdURProgPageFl byte = 0xC1
	cmdURProgPageEE byte = 0xC2
	cmdURReadPageFl byte = 0xC3
	cmdURReadPageEE byte = 0xC4
)

// classicInsync/classicOK are the STK500v1 sync bytes a legacy optiboot
// or plain STK500v1 bootloader uses; Urclock remaps the bootloader's
// reserved (0xff,0xfe) reply onto this pair for backward compatibility.
const (
	classicInsync byte = 0x14
	classicOK     byte = 0x10
)

// syncAttempts bounds how many GET_SYNC round trips are tried before
// giving up (spec §4.6 "abort after 20 attempts").
const syncAttempts = 20

// syncRecvTimeout bounds each Recv during Sync; it has the same value as
// transport.SyncRecvTimeout.
const syncRecvTimeout = 100 * time.Millisecond

// memFlash/memEEPROM name which flash-or-eeprom flavour of a paged
// command to use; Urclock has no concept of any other paged memory.
type memKind int

const (
	memFlash memKind = iota
	memEEPROM
)
