package redis

import (
	"context"
	"testing"
	"time"

	"club-trivia-service/internal/domain"
	"club-trivia-service/internal/infra/memory"
	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{
		QuestionLoader: memory.NewStaticQuestionLoader(map[string]domain.QuestionSet{
			"club-trivia": sampleSet(),
		}),
	}
	repo := NewQuestionRepository(client, loader, time.Minute)

	set, err := repo.GetQuestionSet(context.Background(), "club-trivia")
	if err != nil {
		t.Fatalf("get set: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if len(set.Questions) != 1 || set.Questions[0].Prompt == "" {
		t.Fatalf("expected prompts preserved, got %+v", set.Questions)
	}
	if !mr.Exists("trivia:questions:club-trivia") {
		t.Fatalf("expected cached key in redis")
	}

	// Second call should hit cache, loader not incremented, prompts intact.
	set, _ = repo.GetQuestionSet(context.Background(), "club-trivia")
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if set.Questions[0].Options[0] != "1890" {
		t.Fatalf("expected full options round-tripped, got %+v", set.Questions[0].Options)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestionSet(ctx context.Context, setID string) (domain.QuestionSet, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestionSet(ctx, setID)
}

func sampleSet() domain.QuestionSet {
	return domain.QuestionSet{
		ID:     "club-trivia",
		ClubID: "demo-club",
		Questions: []domain.Question{
			{
				ID:               1,
				Prompt:           "In what year was the club founded?",
				Options:          []string{"1890", "1900", "1910", "1920"},
				CorrectOption:    0,
				TimeLimitSeconds: 30,
			},
		},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
