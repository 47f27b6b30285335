package pipeline

import (
	"fmt"
	"strings"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
)

// finalize turns a decoded completion into the schema's typed result.
// Structural violations are collected in full before anything is returned.
func (p *Pipeline) finalize(pol Policy, v any, in domain.Inputs) (any, bool, error) {
	v, ok := coerceShape(v, pol.Shape)
	if !ok {
		return nil, false, &domain.SchemaValidationError{
			Schema: pol.ID,
			Fields: []domain.FieldViolation{{Field: "$", Rule: string(pol.Shape)}},
		}
	}
	if arr, isArr := v.([]any); isArr && len(arr) == 0 {
		return nil, false, &domain.NoQuestionsGeneratedError{Schema: pol.ID}
	}

	normalize(pol.ID, v)

	var vs violations
	checkRequired(v, pol.RequiredPaths(), &vs)
	checkExactKeys(v, pol.ExactKeys, &vs)
	if pol.ID == domain.SchemaKeySkills {
		checkStringItems(v, &vs)
	}
	if err := vs.err(pol.ID); err != nil {
		return nil, false, err
	}

	switch pol.ID {
	case domain.SchemaCompatibilityAnalysis:
		return p.finalizeAnalysis(pol, v, in, &vs)
	case domain.SchemaQuiz:
		qs, err := p.finalizeQuestions(pol, v, &vs)
		if err != nil {
			return nil, false, err
		}
		return &domain.QuizQuestionSet{Questions: qs}, false, nil
	case domain.SchemaMCQBatch:
		qs, err := p.finalizeQuestions(pol, v, &vs)
		if err != nil {
			return nil, false, err
		}
		return &domain.MCQBatch{Questions: qs}, false, nil
	case domain.SchemaMCQSingle:
		var q domain.Question
		if !decodeInto(v, &q, &vs) {
			return nil, false, vs.err(pol.ID)
		}
		p.checkStruct("", q, &vs)
		if err := vs.err(pol.ID); err != nil {
			return nil, false, err
		}
		if q.Skill == "" {
			q.Skill = strings.TrimSpace(in.Skill)
		}
		q.QuestionType = domain.QuestionTypeSingleChoice
		return &q, false, nil
	case domain.SchemaInterviewQuestions:
		return p.finalizeInterview(pol, v, &vs)
	case domain.SchemaSkillBatch:
		return p.finalizeSkillBatch(pol, v, &vs)
	case domain.SchemaKeySkills:
		var skills []string
		if !decodeInto(v, &skills, &vs) {
			return nil, false, vs.err(pol.ID)
		}
		for i := range skills {
			skills[i] = strings.TrimSpace(skills[i])
		}
		return &domain.KeySkills{Skills: skills}, false, nil
	case domain.SchemaResumeSkills:
		var rs domain.ResumeSkills
		if !decodeInto(v, &rs, &vs) {
			return nil, false, vs.err(pol.ID)
		}
		p.checkStruct("", rs, &vs)
		if err := vs.err(pol.ID); err != nil {
			return nil, false, err
		}
		return &rs, false, nil
	}
	return nil, false, fmt.Errorf("%w: no decoder for schema %q", domain.ErrInternal, pol.ID)
}

func (p *Pipeline) finalizeAnalysis(pol Policy, v any, in domain.Inputs, vs *violations) (any, bool, error) {
	var a domain.CompatibilityAnalysis
	if !decodeInto(v, &a, vs) {
		return nil, false, vs.err(pol.ID)
	}
	// The override runs before range checks so an out-of-range
	// quizPerformance is replaced rather than rejected.
	overridden := EnforceQuizScore(&a, in.Quiz)
	p.checkStruct("", a, vs)
	if err := vs.err(pol.ID); err != nil {
		return nil, false, err
	}
	return &a, overridden, nil
}

func (p *Pipeline) finalizeQuestions(pol Policy, v any, vs *violations) ([]domain.Question, error) {
	var qs []domain.Question
	if !decodeInto(v, &qs, vs) {
		return nil, vs.err(pol.ID)
	}
	for i := range qs {
		p.checkStruct(fmt.Sprintf("[%d]", i), qs[i], vs)
		qs[i].QuestionType = domain.QuestionTypeSingleChoice
	}
	if err := vs.err(pol.ID); err != nil {
		return nil, err
	}
	return qs, nil
}

func (p *Pipeline) finalizeInterview(pol Policy, v any, vs *violations) (any, bool, error) {
	var topics []domain.InterviewTopic
	if !decodeInto(v, &topics, vs) {
		return nil, false, vs.err(pol.ID)
	}
	for i := range topics {
		p.checkStruct(fmt.Sprintf("[%d]", i), topics[i], vs)
	}
	if err := vs.err(pol.ID); err != nil {
		return nil, false, err
	}
	set := &domain.InterviewQuestionSet{Topics: topics}
	for i := range topics {
		for j := range topics[i].Questions {
			q := &topics[i].Questions[j]
			q.ID = fmt.Sprintf("topic-%d-question-%d", i, j)
			q.TopicName = topics[i].TopicName
			set.Questions = append(set.Questions, *q)
		}
	}
	return set, false, nil
}

func (p *Pipeline) finalizeSkillBatch(pol Policy, v any, vs *violations) (any, bool, error) {
	var skills []domain.PracticeSkill
	if !decodeInto(v, &skills, vs) {
		return nil, false, vs.err(pol.ID)
	}
	for i := range skills {
		p.checkStruct(fmt.Sprintf("[%d]", i), skills[i], vs)
	}
	if err := vs.err(pol.ID); err != nil {
		return nil, false, err
	}
	batch := &domain.SkillBatch{Skills: skills, ByCategory: make(map[string][]domain.PracticeSkill)}
	for _, s := range skills {
		batch.ByCategory[s.Category] = append(batch.ByCategory[s.Category], s)
	}
	return batch, false, nil
}

// normalize applies the field aliases and casing the models are known to
// vary on, in place.
func normalize(id domain.SchemaID, v any) {
	switch id {
	case domain.SchemaInterviewQuestions:
		eachObject(v, func(topic map[string]any) {
			eachObject(topic["questions"], func(q map[string]any) {
				if s, _ := q["sampleAnswer"].(string); s != "" {
					return
				}
				for _, alias := range []string{"Answer", "answer", "sample_answer"} {
					if s, ok := q[alias].(string); ok && s != "" {
						q["sampleAnswer"] = s
						delete(q, alias)
						return
					}
				}
			})
		})
	case domain.SchemaSkillBatch:
		eachObject(v, func(s map[string]any) {
			if imp, ok := s["importance"].(string); ok {
				s["importance"] = strings.ToLower(strings.TrimSpace(imp))
			}
		})
	}
}

func eachObject(v any, fn func(map[string]any)) {
	arr, _ := v.([]any)
	for _, el := range arr {
		if m, ok := el.(map[string]any); ok {
			fn(m)
		}
	}
}

func checkStringItems(v any, vs *violations) {
	arr, _ := v.([]any)
	for i, el := range arr {
		s, ok := el.(string)
		if !ok {
			vs.add(fmt.Sprintf("[%d]", i), "string")
			continue
		}
		if strings.TrimSpace(s) == "" {
			vs.add(fmt.Sprintf("[%d]", i), "required")
		}
	}
}
