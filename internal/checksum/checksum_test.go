package checksum

import "testing"

func TestSum(t *testing.T) {
	const abc = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got := Sum([]byte("abc")); got != abc {
		t.Errorf("Sum(abc) = %s", got)
	}
	if Sum([]byte(`{"nodes":[]}`)) == Sum([]byte(`{"nodes": []}`)) {
		t.Error("different graph bytes must not share a checksum")
	}
}
