package prompt

import (
	"fmt"
	"strings"

	"github.com/facultyinsight/backend/internal/llm"
)

// reviewSystemPrompt is the structured-output rubric. The response must be
// a single JSON object holding a one-element Review array; overall is the
// mean of learning, workload and difficulty only.
const reviewSystemPrompt = `You are FacultyInsight, an AI teacher review system. Your role is to evaluate and summarize student reviews for the selected teacher. Focus on extracting insights from the reviews and providing a clear assessment of the teacher in the following categories:

1. Leniency: How flexible and accommodating is the teacher regarding deadlines, attendance, and student needs?
2. Grading: How fairly and consistently does the teacher grade assignments and exams?
3. Workload: How much work is expected from students, including homework, projects, and other assignments?
4. Difficulty: How challenging is the course material and the teacher's expectations?
5. Learning: How effective is the teacher in facilitating student learning and understanding of the subject matter?

Instructions:

- Analyze the majority of the student reviews to account for potential biases.
- Provide a brief, concise summary of the student feedback in each category.
- Assign a score from 1 to 10 for each category, where 1 is the lowest and 10 is the highest.
- Calculate an overall score, which should be the average of the learning, workload, difficulty. Do not factor in Leniency and Grading for the overall score.
- Return the result as a JSON object with the following structure:

{
    "Review": [
        {
            "TeacherName": str,
            "leniency": int,
            "workload": int,
            "difficulty": int,
            "grading": int,
            "overall": int,
            "learning": int,
            "summary": str
        }
    ]
}

- Do not include any additional commentary or text outside the JSON object.`

// chatSystemPrompt is the free-text rubric for the streaming variant.
const chatSystemPrompt = `You are FacultyInsight, an AI teacher review system. Your role is to evaluate and summarize student reviews for the selected teacher. Focus on extracting insights from the reviews and providing a clear assessment of the teacher in the following categories:

1. Leniency: How flexible and accommodating is the teacher regarding deadlines, attendance, and student needs?
2. Grading: How fairly and consistently does the teacher grade assignments and exams?
3. Workload: How much work is expected from students, including homework, projects, and other assignments?
4. Difficulty: How challenging is the course material and the teacher's expectations?

Instructions:

- Analyze the majority of the student reviews to account for potential biases.
- Provide a brief, concise summary of the student feedback in each category.
- Assign a score from 1 to 10 for each category, where 1 is the lowest and 10 is the highest.
- Do not use Markdown formatting in your responses.

Output Format:

- Summary of Student Reviews: [Summary here]
- Scores:
  - Leniency: [Score]
  - Grading: [Score]
  - Workload: [Score]
  - Difficulty: [Score]`

// ReviewMessages builds the structured-mode request: the rubric system
// message followed by user messages carrying teacher, courses and reviews.
// An empty review list still yields a valid request; the model's answer on
// no evidence is a legitimate low-quality output, not an error.
func ReviewMessages(teacher string, courses, reviews []string) []llm.Message {
	return withPayload(reviewSystemPrompt, teacher, courses, reviews)
}

// ChatMessages builds the streaming-mode request for the simple variant.
func ChatMessages(teacher string, courses, reviews []string) []llm.Message {
	return withPayload(chatSystemPrompt, teacher, courses, reviews)
}

func withPayload(system, teacher string, courses, reviews []string) []llm.Message {
	return []llm.Message{
		{Role: llm.RoleSystem, Content: system},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Teacher: %s", teacher)},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Courses Taught: %s", strings.Join(courses, ", "))},
		{Role: llm.RoleUser, Content: fmt.Sprintf("Reviews: %s", strings.Join(reviews, " | "))},
	}
}

// WithContext splices retrieved passages ahead of the conversation: system
// rubric, one user message holding the context block, then the history in
// original order. Used by the retrieval-augmented chat variant.
func WithContext(passages []string, history []llm.Message) []llm.Message {
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: chatSystemPrompt})

	if len(passages) > 0 {
		var b strings.Builder
		b.WriteString("Relevant student review excerpts:\n")
		for _, p := range passages {
			b.WriteString("- ")
			b.WriteString(p)
			b.WriteString("\n")
		}
		msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: b.String()})
	}

	msgs = append(msgs, history...)
	return msgs
}
