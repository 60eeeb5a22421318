package roster

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed data/teachers.json data/teachers_courses.json
var rosterFS embed.FS

// Key derives the storage identifier from a teacher's display name by
// removing spaces and periods and lower-casing the rest. It must stay a
// pure function of the display name: stored records depend on it.
func Key(displayName string) string {
	replacer := strings.NewReplacer(" ", "", ".", "", "\t", "", "\n", "")
	return strings.ToLower(replacer.Replace(displayName))
}

type courseEntry struct {
	CoursesTaught []string `json:"courses_taught"`
}

// Roster is the static, read-only teacher list and course map, loaded once
// from the bundled resources.
type Roster struct {
	names   []string
	byKey   map[string]string
	courses map[string][]string
}

func Load() (*Roster, error) {
	rawNames, err := rosterFS.ReadFile("data/teachers.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read teacher roster: %w", err)
	}

	var names []string
	if err := json.Unmarshal(rawNames, &names); err != nil {
		return nil, fmt.Errorf("failed to parse teacher roster: %w", err)
	}

	rawCourses, err := rosterFS.ReadFile("data/teachers_courses.json")
	if err != nil {
		return nil, fmt.Errorf("failed to read course map: %w", err)
	}

	var entries map[string]courseEntry
	if err := json.Unmarshal(rawCourses, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse course map: %w", err)
	}

	byKey := make(map[string]string, len(names))
	for _, name := range names {
		key := Key(name)
		if existing, ok := byKey[key]; ok {
			// Two display names normalizing to the same key would silently
			// merge their records; refuse to start instead.
			return nil, fmt.Errorf("roster key collision: %q and %q both derive %q", existing, name, key)
		}
		byKey[key] = name
	}

	courses := make(map[string][]string, len(entries))
	for key, entry := range entries {
		courses[key] = entry.CoursesTaught
	}

	return &Roster{
		names:   names,
		byKey:   byKey,
		courses: courses,
	}, nil
}

// Names returns the display names in roster order.
func (r *Roster) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// DisplayName resolves a key back to its display name.
func (r *Roster) DisplayName(key string) (string, bool) {
	name, ok := r.byKey[key]
	return name, ok
}

// Courses returns the course list for a key; a teacher with no mapped
// courses yields an empty list.
func (r *Roster) Courses(key string) []string {
	list, ok := r.courses[key]
	if !ok {
		return []string{}
	}
	out := make([]string, len(list))
	copy(out, list)
	return out
}
