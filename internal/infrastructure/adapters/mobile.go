package adapters

import (
	"context"

	"github.com/membercard/backend/internal/domain/contact"
	syncdomain "github.com/membercard/backend/internal/domain/sync"
	"github.com/membercard/backend/internal/infrastructure/vcard"
)

// MobileTransport is the injected CardDAV-style exchange. Download returns
// the full vCard document published at the per-user endpoint; Upload replaces
// it. Protocol details (HTTP verbs, ETags, auth) live in the concrete client.
type MobileTransport interface {
	Download(ctx context.Context, endpoint string) (string, error)
	Upload(ctx context.Context, endpoint, payload string) error
}

// MobileAdapter implements PlatformAdapter for mobile device sync using
// vCard 3.0 payloads.
type MobileAdapter struct {
	transport MobileTransport
	codec     *vcard.Codec
}

// NewMobileAdapter creates a new mobile adapter
func NewMobileAdapter(transport MobileTransport, codec *vcard.Codec) *MobileAdapter {
	return &MobileAdapter{transport: transport, codec: codec}
}

// Platform returns the code this adapter handles
func (a *MobileAdapter) Platform() syncdomain.PlatformCode {
	return syncdomain.PlatformMobile
}

// FetchRemoteContacts downloads the endpoint document and decodes it.
// Unparsable blocks are surfaced as pre-failed records carrying the codec's
// diagnosis, so the run reports why each block was rejected without aborting
// the stream.
func (a *MobileAdapter) FetchRemoteContacts(ctx context.Context, config *syncdomain.SyncConfiguration) ([]syncdomain.RawExternalContact, error) {
	payload, err := a.transport.Download(ctx, config.EndpointAddress)
	if err != nil {
		return nil, syncdomain.NewConnectionError(a.Platform(), err)
	}

	cards, recordErrors := a.codec.Decode(payload)
	records := make([]syncdomain.RawExternalContact, 0, len(cards)+len(recordErrors))
	for _, card := range cards {
		records = append(records, card.RawContact())
	}
	for _, recordErr := range recordErrors {
		records = append(records, syncdomain.RawExternalContact{
			Name:         recordErr.Reference,
			ParseFailure: recordErr.Message,
		})
	}
	return records, nil
}

// PushLocalContacts encodes the records as one vCard document and uploads
// it. The exchange is document-level, so acks are all-or-nothing.
func (a *MobileAdapter) PushLocalContacts(ctx context.Context, config *syncdomain.SyncConfiguration, records []contact.ContactRecord) ([]syncdomain.PushAck, error) {
	if len(records) == 0 {
		return []syncdomain.PushAck{}, nil
	}

	payload := a.codec.EncodeAll(records)
	if err := a.transport.Upload(ctx, config.EndpointAddress, payload); err != nil {
		return nil, syncdomain.NewConnectionError(a.Platform(), err)
	}

	acks := make([]syncdomain.PushAck, len(records))
	for i := range records {
		acks[i] = syncdomain.PushAck{Record: &records[i], OK: true}
	}
	return acks, nil
}

// Ensure MobileAdapter implements PlatformAdapter
var _ syncdomain.PlatformAdapter = (*MobileAdapter)(nil)
