package nulltest

import "testing"

func TestRunUnsupportedFormatErrors(t *testing.T) {
	_, err := Run("testdata/nonexistent.xyz")
	if err == nil {
		t.Fatalf("expected error for unsupported/missing file")
	}
}
