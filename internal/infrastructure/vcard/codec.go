// Package vcard implements the vCard 3.0 (RFC 2426) text interchange format
// used by the mobile contact sync endpoint. Only the properties the contact
// model carries are encoded; everything else is ignored on decode.
package vcard

import (
	"strings"
	"time"

	"github.com/membercard/backend/internal/domain/contact"
	"github.com/membercard/backend/internal/domain/sync"
)

const (
	beginLine = "BEGIN:VCARD"
	endLine   = "END:VCARD"
	version   = "3.0"
)

// Card is one decoded vCard block. It carries values exactly as they appeared
// on the wire, after property unescaping.
type Card struct {
	Name    string
	Company string
	Title   string
	Emails  []string
	Phones  []string
	Address string
	Website string
	Notes   string
}

// RawContact maps the card onto the adapter exchange shape. Cards can carry
// several emails and phones; the first of each is used for matching and the
// rest travel through the reconciliation union when the card is re-encoded.
func (c Card) RawContact() sync.RawExternalContact {
	raw := sync.RawExternalContact{
		Name:    c.Name,
		Company: c.Company,
		Title:   c.Title,
		Address: c.Address,
		Website: c.Website,
		Notes:   c.Notes,
	}
	if len(c.Emails) > 0 {
		raw.Email = c.Emails[0]
	}
	if len(c.Phones) > 0 {
		raw.Phone = c.Phones[0]
	}
	return raw
}

// Codec encodes and decodes contact records as vCard 3.0 text
type Codec struct {
	now func() time.Time
}

// NewCodec creates a codec using wall-clock time for REV stamps
func NewCodec() *Codec {
	return &Codec{now: time.Now}
}

// NewCodecWithClock creates a codec with an injected clock, used in tests
func NewCodecWithClock(now func() time.Time) *Codec {
	return &Codec{now: now}
}

// ---------------------------------------------------------------------------
// Decode
// ---------------------------------------------------------------------------

// Decode splits the text on BEGIN:VCARD boundaries (case-sensitive, per the
// 3.0 spec) and parses each block. Malformed blocks do not stop the batch:
// they come back as RecordErrors alongside the cards that did parse, in
// source order.
func (c *Codec) Decode(text string) ([]Card, []sync.RecordError) {
	var cards []Card
	var recordErrs []sync.RecordError

	chunks := strings.Split(text, beginLine)
	// Everything before the first BEGIN:VCARD is preamble, not a block
	for _, chunk := range chunks[1:] {
		card, err := decodeBlock(chunk)
		if err != nil {
			recordErrs = append(recordErrs, *err)
			continue
		}
		cards = append(cards, card)
	}

	return cards, recordErrs
}

func decodeBlock(chunk string) (Card, *sync.RecordError) {
	var card Card
	terminated := false

	for _, line := range strings.Split(chunk, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		if line == endLine {
			terminated = true
			break
		}

		name, value, ok := splitProperty(line)
		if !ok {
			continue
		}

		switch name {
		case "FN":
			card.Name = unescape(value)
		case "ORG":
			card.Company = unescape(value)
		case "TITLE":
			card.Title = unescape(value)
		case "TEL":
			if v := unescape(value); v != "" {
				card.Phones = append(card.Phones, v)
			}
		case "EMAIL":
			if v := unescape(value); v != "" {
				card.Emails = append(card.Emails, v)
			}
		case "URL":
			card.Website = unescape(value)
		case "NOTE":
			card.Notes = unescape(value)
		case "ADR":
			card.Address = joinAddress(value)
		}
	}

	if !terminated {
		return Card{}, recordErrorFor(card, "vcard block missing END:VCARD")
	}
	if isEmptyCard(card) {
		return Card{}, recordErrorFor(card, "vcard block carries no recognized properties")
	}
	return card, nil
}

// splitProperty separates "NAME;PARAM=X:value" into the bare property name
// and the value. Property names match case-insensitively; parameters after
// the first semicolon are discarded.
func splitProperty(line string) (name, value string, ok bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return "", "", false
	}
	name = line[:idx]
	value = line[idx+1:]
	if p := strings.Index(name, ";"); p >= 0 {
		name = name[:p]
	}
	return strings.ToUpper(strings.TrimSpace(name)), value, true
}

// joinAddress flattens an ADR value into the model's free-text address.
// Components are joined with ", " in the order they appear, however many
// there are; empty components are dropped.
func joinAddress(value string) string {
	var present []string
	for _, component := range splitUnescaped(value, ';') {
		component = strings.TrimSpace(unescape(component))
		if component != "" {
			present = append(present, component)
		}
	}
	return strings.Join(present, ", ")
}

func isEmptyCard(c Card) bool {
	return c.Name == "" && c.Company == "" && c.Title == "" &&
		len(c.Emails) == 0 && len(c.Phones) == 0 &&
		c.Address == "" && c.Website == "" && c.Notes == ""
}

func recordErrorFor(c Card, message string) *sync.RecordError {
	reference := c.Name
	if reference == "" && len(c.Emails) > 0 {
		reference = c.Emails[0]
	}
	if reference == "" {
		reference = "(unparsed vcard block)"
	}
	recordErr := sync.NewRecordError(reference, message)
	return &recordErr
}

// ---------------------------------------------------------------------------
// Encode
// ---------------------------------------------------------------------------

// Encode serializes one contact as a vCard 3.0 block. Non-empty properties
// are written in a fixed order; empty ones are omitted rather than emitted as
// blank lines. The REV stamp is regenerated on every call, so it is the one
// property the decode/encode round trip does not preserve.
func (c *Codec) Encode(record *contact.ContactRecord) string {
	var b strings.Builder
	writeLine(&b, beginLine)
	writeLine(&b, "VERSION:"+version)

	writeProperty(&b, "FN", record.Name)
	writeProperty(&b, "ORG", record.Company)
	writeProperty(&b, "TITLE", record.Title)
	for _, phone := range record.Phones {
		writeProperty(&b, "TEL", phone)
	}
	for _, email := range record.Emails {
		writeProperty(&b, "EMAIL", email)
	}
	if record.Address != "" {
		writeLine(&b, "ADR:;;"+escape(record.Address))
	}
	writeProperty(&b, "URL", record.Website)
	writeProperty(&b, "NOTE", record.Notes)

	writeLine(&b, "REV:"+c.now().UTC().Format("20060102T150405Z"))
	writeLine(&b, endLine)
	return b.String()
}

// EncodeAll serializes the records as consecutive blocks separated by a
// blank line.
func (c *Codec) EncodeAll(records []contact.ContactRecord) string {
	blocks := make([]string, 0, len(records))
	for i := range records {
		blocks = append(blocks, c.Encode(&records[i]))
	}
	return strings.Join(blocks, "\r\n")
}

func writeProperty(b *strings.Builder, name, value string) {
	if value == "" {
		return
	}
	writeLine(b, name+":"+escape(value))
}

func writeLine(b *strings.Builder, line string) {
	b.WriteString(line)
	b.WriteString("\r\n")
}

// ---------------------------------------------------------------------------
// Value escaping (RFC 2426 §2.4.2)
// ---------------------------------------------------------------------------

func escape(value string) string {
	r := strings.NewReplacer(
		"\\", "\\\\",
		";", "\\;",
		",", "\\,",
		"\n", "\\n",
	)
	return r.Replace(value)
}

func unescape(value string) string {
	var b strings.Builder
	b.Grow(len(value))
	for i := 0; i < len(value); i++ {
		if value[i] != '\\' || i+1 == len(value) {
			b.WriteByte(value[i])
			continue
		}
		i++
		switch value[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default:
			b.WriteByte(value[i])
		}
	}
	return b.String()
}

// splitUnescaped splits on sep, honoring backslash escapes in the value
func splitUnescaped(value string, sep byte) []string {
	var parts []string
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		switch {
		case value[i] == '\\' && i+1 < len(value):
			b.WriteByte(value[i])
			i++
			b.WriteByte(value[i])
		case value[i] == sep:
			parts = append(parts, b.String())
			b.Reset()
		default:
			b.WriteByte(value[i])
		}
	}
	parts = append(parts, b.String())
	return parts
}
