package shared

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// WarningType represents different types of warnings
type WarningType int

const (
	ProviderQueryWarning WarningType = iota
	MetadataNotFoundWarning
	EnrichmentWarning
	CoverArtDownloadWarning
	CoverArtMetadataWarning
	TranscodeQuirkWarning
	CacheCleanupWarning
	EntrySkippedWarning
)

// Warning represents a single warning with context
type Warning struct {
	Type    WarningType
	Message string
	Context string // entry or query the warning belongs to
	Details string // Additional details like error message
}

// WarningCollector collects warnings during a batch. Safe for concurrent use.
type WarningCollector struct {
	mu       sync.Mutex
	warnings []Warning
	enabled  bool
}

// NewWarningCollector creates a new warning collector
func NewWarningCollector(enabled bool) *WarningCollector {
	return &WarningCollector{
		warnings: make([]Warning, 0),
		enabled:  enabled,
	}
}

// AddWarning adds a warning to the collector
func (wc *WarningCollector) AddWarning(warningType WarningType, context, message, details string) {
	if wc == nil || !wc.enabled {
		return
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	wc.warnings = append(wc.warnings, Warning{
		Type:    warningType,
		Message: message,
		Context: context,
		Details: details,
	})
}

// AddProviderQueryWarning records a failed catalog adapter
func (wc *WarningCollector) AddProviderQueryWarning(provider Provider, query, details string) {
	wc.AddWarning(ProviderQueryWarning, fmt.Sprintf("%s: %s", provider, query), "Provider query failed", details)
}

// AddMetadataNotFoundWarning records a query no provider could answer
func (wc *WarningCollector) AddMetadataNotFoundWarning(query string) {
	wc.AddWarning(MetadataNotFoundWarning, query, "No metadata found", "")
}

// AddEnrichmentWarning records a failed detail lookup
func (wc *WarningCollector) AddEnrichmentWarning(provider Provider, title, details string) {
	wc.AddWarning(EnrichmentWarning, fmt.Sprintf("%s: %s", provider, title), "Could not enrich candidate", details)
}

// AddCoverArtDownloadWarning adds a cover art download warning
func (wc *WarningCollector) AddCoverArtDownloadWarning(context, details string) {
	wc.AddWarning(CoverArtDownloadWarning, context, "Could not download cover art", details)
}

// AddCoverArtMetadataWarning adds a cover art metadata warning
func (wc *WarningCollector) AddCoverArtMetadataWarning(context, details string) {
	wc.AddWarning(CoverArtMetadataWarning, context, "Failed to add cover art to metadata", details)
}

// AddTranscodeQuirkWarning records an ffmpeg refusal that was treated as success
func (wc *WarningCollector) AddTranscodeQuirkWarning(path, details string) {
	wc.AddWarning(TranscodeQuirkWarning, path, "Transcoder refused to overwrite existing output", details)
}

// AddCacheCleanupWarning records a temp file that could not be removed
func (wc *WarningCollector) AddCacheCleanupWarning(path, details string) {
	wc.AddWarning(CacheCleanupWarning, path, "Could not remove temporary file", details)
}

// AddEntrySkippedWarning records an entry that produced no downloadable link
func (wc *WarningCollector) AddEntrySkippedWarning(label string) {
	wc.AddWarning(EntrySkippedWarning, label, "Entry skipped", "")
}

// HasWarnings returns true if there are any warnings
func (wc *WarningCollector) HasWarnings() bool {
	return wc.GetWarningCount() > 0
}

// GetWarningCount returns the total number of warnings
func (wc *WarningCollector) GetWarningCount() int {
	if wc == nil {
		return 0
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	return len(wc.warnings)
}

// GetWarningsByType returns warnings grouped by type
func (wc *WarningCollector) GetWarningsByType() map[WarningType][]Warning {
	grouped := make(map[WarningType][]Warning)
	if wc == nil {
		return grouped
	}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	for _, warning := range wc.warnings {
		grouped[warning.Type] = append(grouped[warning.Type], warning)
	}
	return grouped
}

// PrintSummary prints a formatted summary of all warnings
func (wc *WarningCollector) PrintSummary() {
	if !wc.HasWarnings() {
		return
	}

	ColorWarning.Printf("\n⚠️  Warning Summary (%d warnings):\n", wc.GetWarningCount())
	ColorWarning.Println(strings.Repeat("─", 50))

	grouped := wc.GetWarningsByType()

	var types []WarningType
	for warningType := range grouped {
		types = append(types, warningType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	for _, warningType := range types {
		wc.printWarningTypeSection(warningType, grouped[warningType])
	}
}

// printWarningTypeSection prints warnings for a specific type
func (wc *WarningCollector) printWarningTypeSection(warningType WarningType, warnings []Warning) {
	if len(warnings) == 0 {
		return
	}

	ColorWarning.Printf("\n%s (%d):\n", warningTypeTitle(warningType), len(warnings))

	contextCounts := make(map[string]int)
	for _, warning := range warnings {
		contextCounts[warning.Context]++
	}

	var contexts []string
	for context := range contextCounts {
		contexts = append(contexts, context)
	}
	sort.Strings(contexts)

	for _, context := range contexts {
		count := contextCounts[context]
		if count > 1 {
			ColorWarning.Printf("  • %s (×%d)\n", context, count)
		} else {
			ColorWarning.Printf("  • %s\n", context)
		}
	}
}

func warningTypeTitle(warningType WarningType) string {
	switch warningType {
	case ProviderQueryWarning:
		return "Metadata Provider Failures"
	case MetadataNotFoundWarning:
		return "Tracks Without Metadata"
	case EnrichmentWarning:
		return "Metadata Enrichment Failures"
	case CoverArtDownloadWarning:
		return "Cover Art Download Failures"
	case CoverArtMetadataWarning:
		return "Cover Art Metadata Failures"
	case TranscodeQuirkWarning:
		return "Transcoder Overwrite Refusals"
	case CacheCleanupWarning:
		return "Temporary Files Left Behind"
	case EntrySkippedWarning:
		return "Entries Skipped (No Link)"
	default:
		return "Other Warnings"
	}
}
