package bus

const (
	// TopicScanFinished carries (context.Context, *collector.Result) for every
	// completed scan, local or remote.
	TopicScanFinished EventTopic = "spell.scan.finished"

	topicMisspelling = "spell.misspelling"
)

// MisspellingTopic is the per-scan topic engines publish misspelling events on,
// so that concurrent scans never share a collector.
func MisspellingTopic(scanID string) EventTopic {
	return EventTopic(topicMisspelling + "/" + scanID)
}
