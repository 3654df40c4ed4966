package dedup

import (
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/docextract/internal/entity"
)

// Fingerprint identifies the underlying business record of a document.
type Fingerprint struct {
	InvoiceNumber string
	TotalAmount   string
	VendorName    string
}

// Empty reports whether every component is absent.
func (f Fingerprint) Empty() bool {
	return f.InvoiceNumber == "" && f.TotalAmount == "" && f.VendorName == ""
}

func (f Fingerprint) String() string {
	return f.InvoiceNumber + "|" + f.TotalAmount + "|" + f.VendorName
}

// FingerprintOf builds the fingerprint of a record. Absent components are
// left empty.
func FingerprintOf(r entity.NormalizedRecord) Fingerprint {
	var fp Fingerprint
	if r.InvoiceNumber != nil {
		fp.InvoiceNumber = key(*r.InvoiceNumber)
	}
	if r.TotalAmount != nil {
		fp.TotalAmount = r.TotalAmount.String()
	}
	if r.VendorName != nil {
		fp.VendorName = key(*r.VendorName)
	}
	return fp
}

func key(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// Deduplicator marks documents that describe the same record.
type Deduplicator struct {
	enabled bool
	logger  *slog.Logger
}

// New creates a Deduplicator. A disabled one passes documents through.
func New(enabled bool, logger *slog.Logger) *Deduplicator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Deduplicator{enabled: enabled, logger: logger}
}

// Deduplicate returns docs in input order with dedup decisions attached.
// Within a fingerprint group the canonical document has the highest score,
// then the earliest processed timestamp, then the earliest input position.
// Documents without any fingerprint component are never merged.
func (d *Deduplicator) Deduplicate(docs []entity.ProcessedDocument) []entity.ProcessedDocument {
	out := make([]entity.ProcessedDocument, len(docs))
	copy(out, docs)
	for i := range out {
		out[i].Dedup = entity.DedupDecision{}
	}
	if !d.enabled {
		return out
	}

	groups := make(map[Fingerprint][]int)
	var order []Fingerprint
	for i := range out {
		fp := FingerprintOf(out[i].Record)
		if fp.Empty() {
			continue
		}
		if _, seen := groups[fp]; !seen {
			order = append(order, fp)
		}
		groups[fp] = append(groups[fp], i)
	}

	duplicates := 0
	for _, fp := range order {
		members := groups[fp]
		if len(members) < 2 {
			continue
		}
		canon := members[0]
		for _, idx := range members[1:] {
			if better(out[idx], out[canon]) {
				canon = idx
			}
		}
		canonID := out[canon].Record.DocumentID
		for _, idx := range members {
			if idx == canon {
				continue
			}
			id := canonID
			out[idx].Dedup = entity.DedupDecision{IsDuplicate: true, CanonicalDocumentID: &id}
			duplicates++
		}
		d.logger.Debug("dedup.group",
			"fingerprint", fp.String(),
			"size", len(members),
			"canonical_document_id", canonID.String(),
		)
	}

	d.logger.Info("dedup.ok", "documents", len(out), "groups", len(order), "duplicates", duplicates)
	return out
}

// better reports whether a should replace b as canonical. Ties on score and
// timestamp keep b, which comes earlier in input order.
func better(a, b entity.ProcessedDocument) bool {
	if a.Validation.Score != b.Validation.Score {
		return a.Validation.Score > b.Validation.Score
	}
	return a.Record.ProcessedTimestamp.Before(b.Record.ProcessedTimestamp)
}
