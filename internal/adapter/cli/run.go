package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/resume-matcher/internal/app"
	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/pipeline"
	"github.com/fairyhunter13/resume-matcher/internal/usecase"
)

type runOptions struct {
	root        *rootOptions
	resumePath  string
	jdPath      string
	skill       string
	skills      []string
	batchSize   int
	quizCorrect int
	quizTotal   int
}

func newRunCmd(root *rootOptions) *cobra.Command {
	o := &runOptions{root: root}
	cmd := &cobra.Command{
		Use:   "run <schema>",
		Short: "Run one completion schema and print the validated result as JSON",
		Long: `Run one completion schema against a resume and job description.

Text inputs are read from files; pass "-" to read one of them from stdin.
Skills for mcq_batch are given as name[:category[:importance]].

Example:
  matchctl run compatibility_analysis --resume cv.txt --jd jd.txt --quiz-correct 8 --quiz-total 10
  matchctl run mcq_batch --jd jd.txt --skills "Go:Languages:critical,Kafka"`,
		Args: cobra.ExactArgs(1),
		RunE: o.run,
	}
	cmd.Flags().StringVar(&o.resumePath, "resume", "", "Path to the resume text")
	cmd.Flags().StringVar(&o.jdPath, "jd", "", "Path to the job description text")
	cmd.Flags().StringVar(&o.skill, "skill", "", "Skill for mcq_single")
	cmd.Flags().StringSliceVar(&o.skills, "skills", nil, "Skills for mcq_batch")
	cmd.Flags().IntVar(&o.batchSize, "batch-size", 0, "Questions per mcq_batch call (default 10)")
	cmd.Flags().IntVar(&o.quizCorrect, "quiz-correct", 0, "Correct quiz answers for compatibility_analysis")
	cmd.Flags().IntVar(&o.quizTotal, "quiz-total", 0, "Total quiz questions for compatibility_analysis")
	return cmd
}

func (o *runOptions) run(cmd *cobra.Command, args []string) error {
	schema, err := domain.ParseSchemaID(args[0])
	if err != nil {
		return err
	}
	cfg, err := o.root.loadConfig(cmd)
	if err != nil {
		return err
	}
	in, err := o.inputs(cmd.InOrStdin())
	if err != nil {
		return err
	}

	provider, name, err := app.BuildProvider(cfg)
	if err != nil {
		return err
	}
	p, err := pipeline.New(provider, pipeline.WithProviderName(name))
	if err != nil {
		return err
	}
	svc := usecase.NewMatchService(p, cfg.GetRetryConfig())

	ctx, cancel := context.WithTimeout(cmd.Context(), o.root.timeout)
	defer cancel()
	res, err := svc.Run(ctx, schema, in)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(res)
}

func (o *runOptions) inputs(stdin io.Reader) (domain.Inputs, error) {
	if o.resumePath == "-" && o.jdPath == "-" {
		return domain.Inputs{}, fmt.Errorf("%w: only one of --resume and --jd may read stdin", domain.ErrInvalidArgument)
	}
	resume, err := readText(o.resumePath, stdin)
	if err != nil {
		return domain.Inputs{}, err
	}
	jd, err := readText(o.jdPath, stdin)
	if err != nil {
		return domain.Inputs{}, err
	}
	return domain.Inputs{
		Resume:         resume,
		JobDescription: jd,
		Quiz:           domain.QuizScore{Correct: o.quizCorrect, Total: o.quizTotal},
		Skill:          strings.TrimSpace(o.skill),
		Skills:         parseSkills(o.skills),
		BatchSize:      o.batchSize,
	}, nil
}

func readText(path string, stdin io.Reader) (string, error) {
	switch path {
	case "":
		return "", nil
	case "-":
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	return string(b), nil
}

// parseSkills reads name[:category[:importance]] entries.
func parseSkills(raw []string) []domain.SkillDescriptor {
	out := make([]domain.SkillDescriptor, 0, len(raw))
	for _, r := range raw {
		parts := strings.SplitN(r, ":", 3)
		d := domain.SkillDescriptor{Skill: strings.TrimSpace(parts[0])}
		if len(parts) > 1 {
			d.Category = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			d.Importance = strings.TrimSpace(parts[2])
		}
		out = append(out, d)
	}
	return out
}
