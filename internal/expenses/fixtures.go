package expenses

import (
	"bytes"
	_ "embed"
)

//go:embed fixtures/demo.json
var demoFixtures []byte

// DemoRepository returns a MemoryRepository seeded with the bundled demo
// farm records.
func DemoRepository() (*MemoryRepository, error) {
	return LoadFixtures(bytes.NewReader(demoFixtures))
}

// DemoFixtures returns a copy of the bundled demo document, including its
// user directory.
func DemoFixtures() []byte {
	return bytes.Clone(demoFixtures)
}
