package highlight

// Tag is a visual tag placed on a cell element. The values are the CSS class
// names stylesheets target, so they must not change.
type Tag = string

const (
	TagWaiting           Tag = "waiting-cell"
	TagReady             Tag = "ready-cell"
	TagReadyMaking       Tag = "ready-making-cell"
	TagReadyMakingInput  Tag = "ready-making-input-cell"
	TagLinkedWaiting     Tag = "linked-waiting"
	TagLinkedReady       Tag = "linked-ready"
	TagLinkedReadyMaking Tag = "linked-ready-making"
)

// AllTags is the complete tag vocabulary in a stable order.
var AllTags = []Tag{
	TagWaiting,
	TagReady,
	TagReadyMaking,
	TagReadyMakingInput,
	TagLinkedWaiting,
	TagLinkedReady,
	TagLinkedReadyMaking,
}
