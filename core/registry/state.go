package registry

// Collection names one of the two snapshots held by the Registry.
type Collection int

const (
	Students Collection = iota
	Fees

	numCollections = 2
)

var collectionNames = [numCollections]string{"students", "fees"}

func (c Collection) String() string {
	if c < 0 || c >= numCollections {
		return "unknown"
	}
	return collectionNames[c]
}

// State of a Registry:
//	Uninitialized -> Loading -> Ready -> (Reloading -> Ready)*
//	Uninitialized -> Loading -> Error -> Loading (retry)
type State int

const (
	Uninitialized State = iota
	Loading
	Ready
	Reloading
	Error
)

var stateNames = map[State]string{
	Uninitialized: "uninitialized",
	Loading:       "loading",
	Ready:         "ready",
	Reloading:     "reloading",
	Error:         "error",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
