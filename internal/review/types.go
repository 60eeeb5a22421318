package review

// Summary is one structured teacher evaluation. Field names follow the
// model's output contract: five category scores in [1,10] plus free text,
// with Overall derived from learning, workload and difficulty only.
type Summary struct {
	TeacherName string `json:"TeacherName"`
	Leniency    int    `json:"leniency"`
	Workload    int    `json:"workload"`
	Difficulty  int    `json:"difficulty"`
	Grading     int    `json:"grading"`
	Learning    int    `json:"learning"`
	Overall     int    `json:"overall"`
	Summary     string `json:"summary"`
}

// envelope is the model's wire shape: a single JSON object holding a
// Review array with exactly one record.
type envelope struct {
	Review []Summary `json:"Review"`
}

// Request carries one evaluation. Reviews and Courses may be supplied by
// the caller; when Reviews is nil the pipeline reads the store instead.
type Request struct {
	Teacher string   `json:"teacher"`
	Reviews []string `json:"reviews"`
	Courses []string `json:"courses_taught"`
}
