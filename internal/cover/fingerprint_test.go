package cover

import "testing"

func TestFingerprintKnownValues(t *testing.T) {
	tests := []struct {
		name                   string
		id, title, description string
		want                   string
	}{
		{name: "course", id: "c1", title: "Intro to Python", description: "Learn python basics", want: "3cad65b2"},
		{name: "changed description", id: "c1", title: "Intro to Python", description: "Learn python basics!", want: "58ff506d"},
		{name: "empty fields", want: "5a0"},
		{name: "missing description", id: "a", title: "b", want: "2cccf7"},
		{name: "non ascii and surrogate pairs", id: "x", title: "Café", description: "naïve 🚀", want: "300b8a4f"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Fingerprint(tc.id, tc.title, tc.description); got != tc.want {
				t.Fatalf("Fingerprint() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint("course-42", "Kubernetes in Production", "Operate clusters")
	b := Fingerprint("course-42", "Kubernetes in Production", "Operate clusters")
	if a != b {
		t.Fatalf("fingerprint not stable: %q vs %q", a, b)
	}
}

func TestFingerprintIndex(t *testing.T) {
	if got := fingerprintIndex("3cad65b2"); got != 0x3cad65b2 {
		t.Fatalf("fingerprintIndex = %d", got)
	}
	if got := fingerprintIndex("5a0"); got != 0x5a0 {
		t.Fatalf("fingerprintIndex short = %d", got)
	}
	if got := fingerprintIndex(""); got != 0 {
		t.Fatalf("fingerprintIndex empty = %d", got)
	}
}
