package wire

import "strings"

var tagForType = map[Type]byte{
	HostGetRequest:      '?',
	HostSetRequest:      '&',
	HostNotification:    '%',
	DeviceReply:         ':',
	DeviceNotification:  '!',
}

var typeForTag = map[byte]Type{
	'?': HostGetRequest,
	'&': HostSetRequest,
	'%': HostNotification,
	':': DeviceReply,
	'!': DeviceNotification,
}

// Message is one parsed or to-be-serialized wire line, minus its CR
// terminator.
type Message struct {
	Event  Event
	Params Params
}

// ParseLine parses a single line (without its trailing CR). ok is false for
// an empty line, which the caller should silently drop, or for an
// unrecognized tag character, which is also dropped per the error-handling
// design (§7: "unknown tags are dropped silently"). errReply holds the stub
// error line to transmit verbatim when the tag is a recognized host-request
// type but the event name is unknown.
func ParseLine(line string) (msg Message, errReply []byte, ok bool) {
	if line == "" {
		return Message{}, nil, false
	}
	tag := line[0]
	typ, known := typeForTag[tag]
	if !known {
		return Message{}, nil, false
	}

	rest := line[1:]
	var nameField, paramField string
	if i := strings.IndexByte(rest, ','); i >= 0 {
		nameField, paramField = rest[:i], rest[i+1:]
	} else {
		nameField = rest
	}

	code, known := LookupCode(nameField)
	if !known {
		if typ.IsHostRequest() {
			n := 1
			if typ == HostGetRequest {
				n = 0
			}
			errReply = []byte(string(tag) + nameField + "," + itoa(int32(n)) + "\r")
		}
		return Message{}, errReply, false
	}

	return Message{
		Event:  Event{Code: code, Type: typ},
		Params: parseParams(paramField),
	}, nil, true
}

func parseParams(field string) Params {
	if field == "" {
		return nil
	}
	tokens := strings.Split(field, ",")
	params := make(Params, 0, len(tokens))
	for _, tok := range tokens {
		p, ok := parseToken(tok)
		if !ok {
			// Neither quoted nor decimal-parseable: skipped, not an error.
			continue
		}
		params = append(params, p)
	}
	return params
}

func parseToken(tok string) (Param, bool) {
	if tok == "" {
		return Null(), true
	}
	if len(tok) >= 2 && tok[0] == '\'' && tok[len(tok)-1] == '\'' {
		return String(tok[1 : len(tok)-1]), true
	}
	n, err := parseInt32(tok)
	if err != nil {
		return Param{}, false
	}
	return Int(n), true
}

func parseInt32(s string) (int32, error) {
	neg := false
	i := 0
	if len(s) > 0 && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		i = 1
	}
	if i == len(s) {
		return 0, errNotANumber
	}
	var v int64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return 0, errNotANumber
		}
		v = v*10 + int64(c-'0')
		if v > 1<<32 {
			return 0, errNotANumber
		}
	}
	if neg {
		v = -v
	}
	return int32(v), nil
}

type parseError string

func (e parseError) Error() string { return string(e) }

const errNotANumber = parseError("wire: not a number")

// ReplyType maps a request type to the wire type its reply must carry: Get
// and Set requests reply as DeviceReply, a Notification replies (when it
// replies at all) as DeviceNotification of the same code.
func ReplyType(requestType Type) Type {
	if requestType == HostNotification {
		return DeviceNotification
	}
	return DeviceReply
}

// Serialize renders msg as a wire line including its trailing CR. Only
// DeviceReply and DeviceNotification messages may be produced.
func Serialize(msg Message) []byte {
	tag, ok := tagForType[msg.Event.Type]
	if !ok || (msg.Event.Type != DeviceReply && msg.Event.Type != DeviceNotification) {
		tag = ':'
	}
	var b strings.Builder
	b.WriteByte(tag)
	b.WriteString(msg.Event.Code.Name())
	for _, p := range msg.Params {
		b.WriteByte(',')
		writeParam(&b, p)
	}
	b.WriteByte('\r')
	return []byte(b.String())
}

func writeParam(b *strings.Builder, p Param) {
	switch p.Kind {
	case KindString:
		b.WriteByte('\'')
		b.WriteString(p.Str)
		b.WriteByte('\'')
	case KindInt:
		b.WriteString(itoa(p.Int))
	case KindBool:
		if p.Bool {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	case KindNull:
		// empty token
	}
}

// StatusAtFront and StatusAtEnd name the two most common status-insertion
// positions in the built-in handler table: most get-style handlers with no
// input to echo place status at index 0, while set-style handlers that
// only validate (and any request the table rejects before a handler ever
// runs) echo the untouched input and append status last. Handlers that keep
// one leading input in place use index 1.
const (
	StatusAtFront = 0
	StatusAtEnd   = -1
)

// BuildReplyAt constructs the reply message for a dispatched request,
// inserting status at the given index of params (StatusAtEnd appends).
// The reply type follows ReplyType. EnumerateDevices has its own fixed
// layout (see the discovery package) and does not go through this helper.
func BuildReplyAt(code Code, requestType Type, status Status, params Params, index int) Message {
	out := params.Clone()
	idx := index
	if idx < 0 || idx > len(out) {
		idx = len(out)
	}
	out.InsertAt(idx, StatusParam(status))
	return Message{Event: Event{Code: code, Type: ReplyType(requestType)}, Params: out}
}

// BuildReply is BuildReplyAt with status at the front, the convention used
// when an application handler builds its own reply params explicitly.
func BuildReply(code Code, requestType Type, status Status, params Params) Message {
	return BuildReplyAt(code, requestType, status, params, StatusAtFront)
}
