// Package classify assigns campaigns to content buckets, topics and
// industries. Every function here is pure and deterministic.
package classify

// Classification is the content grouping for one campaign name.
type Classification struct {
	Bucket string `json:"bucket"`
	Topic  string `json:"topic"`
}

// Classify maps a campaign name to its bucket and topic.
func Classify(name string) Classification {
	bucket, ok := firstMatch(bucketRules, name)
	if !ok {
		bucket = BucketCustomEmail
	}
	return Classification{Bucket: bucket, Topic: Topic(name)}
}

// Topic returns the disease topic for a name. Overrides take precedence over
// the generic vocabulary.
func Topic(name string) string {
	if t, ok := firstMatch(topicOverrides, name); ok {
		return t
	}
	if t, ok := firstMatch(topicVocabulary, name); ok {
		return t
	}
	return TopicOther
}
