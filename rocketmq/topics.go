package rocketmq

import "fmt"

type Topic string

// TopicMisspelling carries collector.MisspellingEvent payloads from remote
// spell-check engines.
const TopicMisspelling Topic = "spell_misspelling"

func GetTopicName(appName string, topic Topic) string {
	if appName == "" {
		return string(topic)
	}
	return fmt.Sprintf("%s_%s", appName, string(topic))
}
