package looper

import "testing"

func TestActionTableIsExhaustive(t *testing.T) {
	for k := ActionKind(0); k < numActionKinds; k++ {
		if actionTable[k] == nil {
			t.Errorf("action kind %d has no handler", k)
		}
		if k != ActionUnknown && actionNames[k] == "" {
			t.Errorf("action kind %d has no name", k)
		}
	}
}
