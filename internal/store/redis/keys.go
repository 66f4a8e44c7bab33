package redis

import "fmt"

const (
	// KeyPrefix namespaces every snoozz key
	KeyPrefix = "snoozz:"
	// ChangesChannel is the pub/sub channel carrying the Redis key of each write
	ChangesChannel = "snoozz:changes"
)

// DataKey returns the Redis key holding a collection
func DataKey(key string) string {
	return KeyPrefix + key
}

// ExtractKey strips the namespace from a Redis key
func ExtractKey(redisKey string) (string, error) {
	if len(redisKey) <= len(KeyPrefix) || redisKey[:len(KeyPrefix)] != KeyPrefix {
		return "", fmt.Errorf("invalid snoozz key: %s", redisKey)
	}
	return redisKey[len(KeyPrefix):], nil
}
