package testutil

// StaticIDGenerator generates the same visitor user id every time.
//
// This enables deterministic test execution and golden snapshot comparison.
// The same scenario with the same StaticIDGenerator produces byte-identical
// results.
//
// Thread-safety: StaticIDGenerator is stateless and safe for concurrent use.
type StaticIDGenerator struct {
	id string
}

// NewStaticIDGenerator creates a new fixed id generator.
//
// If id is empty, Generate() returns "test-user-default".
func NewStaticIDGenerator(id string) *StaticIDGenerator {
	if id == "" {
		id = "test-user-default"
	}
	return &StaticIDGenerator{id: id}
}

// Generate returns the fixed id.
func (g *StaticIDGenerator) Generate() string {
	return g.id
}
