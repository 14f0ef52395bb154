package session

import "testing"

func TestValidateName(t *testing.T) {
	valid := []string{"main", "work-2", "a", "long_name_with_underscores"}
	for _, name := range valid {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{"", "Main", "has space", "slash/name", "../escape", "名字"}
	for _, name := range invalid {
		if err := ValidateName(name); err == nil {
			t.Errorf("ValidateName(%q) = nil, want error", name)
		}
	}
}
