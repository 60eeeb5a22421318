package roster

import "testing"

func TestKey(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Imran Khan", "imrankhan"},
		{"Dr. Sara Ahmed", "drsaraahmed"},
		{"  A. B. C  ", "abc"},
		{"already", "already"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Key(tc.in); got != tc.want {
			t.Errorf("Key(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestLoad(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	names := r.Names()
	if len(names) == 0 {
		t.Fatal("bundled roster must not be empty")
	}

	name, ok := r.DisplayName("imrankhan")
	if !ok {
		t.Fatal("expected imrankhan in the roster")
	}
	if name != "Imran Khan" {
		t.Errorf("DisplayName(imrankhan) = %q", name)
	}
}

func TestCourses(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	courses := r.Courses("imrankhan")
	if len(courses) == 0 {
		t.Error("expected courses for imrankhan")
	}

	if got := r.Courses("nobody"); got == nil || len(got) != 0 {
		t.Errorf("unknown key must yield an empty list, got %v", got)
	}
}

func TestNamesReturnsCopy(t *testing.T) {
	r, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	names := r.Names()
	names[0] = "tampered"

	if r.Names()[0] == "tampered" {
		t.Error("Names must return a defensive copy")
	}
}
