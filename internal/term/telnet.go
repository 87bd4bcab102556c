package term

// Telnet IAC (Interpret As Command) protocol bytes.
const (
	telnetSE   = 240
	telnetSB   = 250
	telnetWill = 251
	telnetWont = 252
	telnetDo   = 253
	telnetDont = 254
	telnetIAC  = 255
)

// StripIAC removes telnet IAC command sequences from a raw byte stream,
// unescaping doubled IAC bytes to a literal 0xFF.
func StripIAC(data []byte) []byte {
	out := make([]byte, 0, len(data))
	i := 0
	for i < len(data) {
		if data[i] != telnetIAC {
			out = append(out, data[i])
			i++
			continue
		}
		if i+1 >= len(data) {
			// Incomplete IAC at end of buffer; drop it.
			break
		}
		cmd := data[i+1]
		switch {
		case cmd == telnetIAC:
			out = append(out, telnetIAC)
			i += 2
		case cmd == telnetSB:
			// Skip subnegotiation through IAC SE.
			j := i + 2
			for j < len(data)-1 {
				if data[j] == telnetIAC && data[j+1] == telnetSE {
					break
				}
				j++
			}
			if j >= len(data)-1 {
				i = len(data)
			} else {
				i = j + 2
			}
		case cmd == telnetDo || cmd == telnetDont || cmd == telnetWill || cmd == telnetWont:
			i += 3
		default:
			i += 2
		}
	}
	return out
}

// NegotiateIAC builds the refusal replies for any option negotiation in the
// incoming stream: DO is answered with WONT, WILL with DONT. A stripped copy
// of the data is returned alongside the replies to send.
func NegotiateIAC(data []byte) (clean, replies []byte) {
	i := 0
	for i < len(data) {
		if data[i] != telnetIAC {
			i++
			continue
		}
		if i+1 >= len(data) {
			break
		}
		cmd := data[i+1]
		switch {
		case cmd == telnetIAC:
			// Escaped literal 0xFF; the bytes after it are payload.
			i += 2
		case cmd == telnetSB:
			// Skip subnegotiation through IAC SE.
			j := i + 2
			for j < len(data)-1 {
				if data[j] == telnetIAC && data[j+1] == telnetSE {
					break
				}
				j++
			}
			if j >= len(data)-1 {
				i = len(data)
			} else {
				i = j + 2
			}
		case cmd == telnetDo || cmd == telnetDont || cmd == telnetWill || cmd == telnetWont:
			if i+2 < len(data) {
				opt := data[i+2]
				if cmd == telnetDo {
					replies = append(replies, telnetIAC, telnetWont, opt)
				} else if cmd == telnetWill {
					replies = append(replies, telnetIAC, telnetDont, opt)
				}
			}
			i += 3
		default:
			i += 2
		}
	}
	return StripIAC(data), replies
}
