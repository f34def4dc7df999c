package store

// Keys names the two Redis keys of one logical deployment.
type Keys struct {
	// Index is the sorted set of pending events scored by due time.
	Index string
	// Queue is the list of events ready for workers.
	Queue string
}

// NewKeys derives the index and queue keys from prefix. With hashTag set
// the prefix becomes a Redis Cluster hash tag ("{prefix}Zset",
// "{prefix}Queue") so both keys live in one slot and can share a
// transaction. Without it the keys are "prefixZset" and "prefixQueue".
func NewKeys(prefix string, hashTag bool) Keys {
	if hashTag {
		prefix = "{" + prefix + "}"
	}
	return Keys{
		Index: prefix + "Zset",
		Queue: prefix + "Queue",
	}
}
