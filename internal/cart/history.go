package cart

import (
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	historyStorageKey = "rotteck-pulli:order-history"
	maxHistoryEntries = 5
)

// HistoryEntry is one remembered order of the current customer. The list is
// a personal shortcut, not an authorization mechanism.
type HistoryEntry struct {
	OrderCode string `json:"orderCode"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

// History is the bounded, most-recent-first cache of the customer's own
// order codes.
type History struct {
	storage Storage
}

func NewHistory(storage Storage) *History {
	return &History{storage: storage}
}

// Load returns the persisted entries. Any read or parse failure yields an
// empty list.
func (h *History) Load() []HistoryEntry {
	raw, err := h.storage.Get(historyStorageKey)
	if err != nil || raw == nil {
		if err != nil {
			log.Warn().Err(err).Msg("Could not read order history")
		}
		return []HistoryEntry{}
	}

	var entries []HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Warn().Err(err).Msg("Could not parse order history")
		return []HistoryEntry{}
	}
	return entries
}

// Add prepends the entry, removing any older entry with the same order code
// first, and trims the list to the five most recent.
func (h *History) Add(entry HistoryEntry) []HistoryEntry {
	if entry.OrderCode == "" {
		return h.Load()
	}
	if entry.CreatedAt == "" {
		entry.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	existing := h.Load()
	updated := make([]HistoryEntry, 0, len(existing)+1)
	updated = append(updated, entry)
	for _, item := range existing {
		if item.OrderCode != entry.OrderCode {
			updated = append(updated, item)
		}
	}
	if len(updated) > maxHistoryEntries {
		updated = updated[:maxHistoryEntries]
	}

	h.persist(updated)
	return updated
}

// Clear wipes the persisted history.
func (h *History) Clear() {
	if err := h.storage.Delete(historyStorageKey); err != nil {
		log.Warn().Err(err).Msg("Could not clear order history")
	}
}

func (h *History) persist(entries []HistoryEntry) {
	raw, err := json.Marshal(entries)
	if err != nil {
		log.Warn().Err(err).Msg("Could not serialize order history")
		return
	}
	if err := h.storage.Put(historyStorageKey, raw); err != nil {
		log.Warn().Err(err).Msg("Could not persist order history")
	}
}

// FormatTimestamp renders a stored timestamp for display. Values that do not
// parse as a time come back unchanged.
func FormatTimestamp(value string) string {
	if value == "" {
		return ""
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if parsed, err := time.Parse(layout, value); err == nil {
			return parsed.Local().Format("02.01.2006, 15:04:05")
		}
	}
	return value
}
