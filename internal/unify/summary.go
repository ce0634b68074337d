package unify

import (
	"context"
	"fmt"

	"github.com/watchfloor/opschain/internal/chain"
	"github.com/watchfloor/opschain/internal/ref"
)

// NoSummary is the placeholder for a dangling reference: the record was
// deleted from its source table after being referenced.
const NoSummary = "(no summary available)"

// alertPreviewRunes caps how much of a mass-notification message appears
// in one-line summaries.
const alertPreviewRunes = 50

// Summary resolves a record reference to a concise one-line description
// for timelines and filters. A dangling ref yields NoSummary, never an
// error; referential integrity is only checked here, at read time.
func (a *Aggregator) Summary(ctx context.Context, r ref.Ref) (string, error) {
	k, ok := a.catalog.Lookup(r.Kind)
	if !ok {
		return "", chain.NewInvalidArgument("unknown record kind " + r.Kind)
	}

	details, found, err := a.source.RecordDetails(ctx, k.Table, r.ID)
	if err != nil {
		return "", chain.NewStoreError("summarize record", err)
	}
	if !found {
		return NoSummary, nil
	}

	switch r.Kind {
	case "email":
		logType := textField(details, "log_type", "Email")
		subject := textField(details, "subject", "No subject")
		return fmt.Sprintf("%s: %s", logType, subject), nil

	case "phone":
		callType := textField(details, "call_type", "Phone")
		caller := textField(details, "caller_name", "Unknown")
		if site := textField(details, "site_code", ""); site != "" {
			return fmt.Sprintf("%s from %s - Site %s", callType, caller, site), nil
		}
		return fmt.Sprintf("%s from %s", callType, caller), nil

	case "radio":
		unit := textField(details, "unit", "Unit")
		reason := textField(details, "reason", "Unknown reason")
		return fmt.Sprintf("%s - %s", unit, reason), nil

	case "alert":
		return truncateRunes(textField(details, "message", ""), alertPreviewRunes), nil

	default:
		// Kinds beyond the default four get a generic message-or-label
		// summary.
		if msg := textField(details, "message", ""); msg != "" {
			return truncateRunes(msg, alertPreviewRunes), nil
		}
		return k.Label, nil
	}
}

// textField pulls a string column out of a details map, falling back when
// the column is missing, NULL or empty.
func textField(details map[string]any, key, fallback string) string {
	v, ok := details[key]
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
