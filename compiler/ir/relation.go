package ir

type Relation uint8

const (
	RelFalse   Relation = 0
	RelEqual   Relation = 1 << 0
	RelLess    Relation = 1 << 1
	RelGreater Relation = 1 << 2
	// RelUnordered is set for float comparisons involving NaN.
	RelUnordered Relation = 1 << 3

	RelLessEqual    = RelLess | RelEqual
	RelGreaterEqual = RelGreater | RelEqual
	RelLessGreater  = RelLess | RelGreater
	RelTrue         = RelEqual | RelLess | RelGreater | RelUnordered
)

var relNames = map[Relation]string{
	RelFalse:                          "false",
	RelEqual:                          "==",
	RelLess:                           "<",
	RelGreater:                        ">",
	RelLessEqual:                      "<=",
	RelGreaterEqual:                   ">=",
	RelLessGreater:                    "!=",
	RelLessGreater | RelUnordered:     "!=u",
	RelTrue:                           "true",
	RelEqual | RelUnordered:           "==u",
	RelLess | RelUnordered:            "<u",
	RelGreater | RelUnordered:         ">u",
	RelLessEqual | RelUnordered:       "<=u",
	RelGreaterEqual | RelUnordered:    ">=u",
	RelEqual | RelLessGreater:         "<=>",
	RelUnordered:                      "u",
}

func ParseRelation(s string) (Relation, bool) {
	for r, n := range relNames {
		if n == s {
			return r, true
		}
	}

	return 0, false
}

// Inverse is the relation which holds exactly when r doesn't.
func (r Relation) Inverse() Relation {
	return r ^ RelTrue
}

// Swapped is the relation for swapped operands.
func (r Relation) Swapped() Relation {
	s := r &^ (RelLess | RelGreater)

	if r&RelLess != 0 {
		s |= RelGreater
	}

	if r&RelGreater != 0 {
		s |= RelLess
	}

	return s
}

func (r Relation) String() string {
	if n, ok := relNames[r]; ok {
		return n
	}

	return "rel?"
}
