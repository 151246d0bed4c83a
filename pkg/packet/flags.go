package packet

import "strings"

// Flags is the TCP flag string of a record, such as "S", "SA" or "FPA".
// Only the presence of the S and A characters is interpreted.
type Flags string

// ParseFlags normalizes a raw flag column. Any input is accepted.
func ParseFlags(text string) Flags {
	return Flags(strings.ToUpper(strings.TrimSpace(text)))
}

func (f Flags) hasSyn() bool { return strings.ContainsRune(string(f), 'S') }
func (f Flags) hasAck() bool { return strings.ContainsRune(string(f), 'A') }

// IsSyn is true for a connection request: S without A
func (f Flags) IsSyn() bool { return f.hasSyn() && !f.hasAck() }

// IsSynAck is true for a connection reply carrying both S and A
func (f Flags) IsSynAck() bool { return f.hasSyn() && f.hasAck() }

// IsAckOnly is true when A is set without S
func (f Flags) IsAckOnly() bool { return f.hasAck() && !f.hasSyn() }
