package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"learnpath/internal/logger"
	"learnpath/internal/models"
	"learnpath/pkg/database"
)

var dbSeq int64

// DB opens a fresh in-memory SQLite database with the full schema. Each call
// gets its own database so tests never share rows.
func DB(tb testing.TB) *gorm.DB {
	tb.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(tb.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, atomic.AddInt64(&dbSeq, 1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormLogger.Default.LogMode(gormLogger.Silent),
	})
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		tb.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	tb.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		tb.Fatalf("migrate: %v", err)
	}
	return db
}

func Logger(tb testing.TB) *logger.Logger {
	tb.Helper()
	return logger.Nop()
}

// Curriculum is a seeded chapter. Steps[skillOrder][stepNumber] is the
// progress row for that position.
type Curriculum struct {
	Chapter models.Chapter
	Skills  map[int]models.Skill
	Steps   map[int]map[int]models.Progress
}

// SeedCurriculum creates one chapter whose skills have the given step
// counts, in order. Every step is a video step with the given bonus.
func SeedCurriculum(tb testing.TB, db *gorm.DB, bonus int, stepsPerSkill ...int) *Curriculum {
	tb.Helper()

	c := &Curriculum{
		Chapter: models.Chapter{Title: "Chapter"},
		Skills:  map[int]models.Skill{},
		Steps:   map[int]map[int]models.Progress{},
	}
	mustCreate(tb, db, &c.Chapter)

	for i, n := range stepsPerSkill {
		order := i + 1
		skill := models.Skill{ChapterID: c.Chapter.ID, Order: order, Name: fmt.Sprintf("Skill %d", order)}
		mustCreate(tb, db, &skill)
		c.Skills[order] = skill
		c.Steps[order] = map[int]models.Progress{}
		for step := 1; step <= n; step++ {
			p := models.Progress{SkillID: skill.ID, StepNumber: step, ContentType: models.ContentVideo, BonusPoints: bonus}
			mustCreate(tb, db, &p)
			c.Steps[order][step] = p
		}
	}
	return c
}

// SeedQuestions adds n questions of the given type to a quiz. Each question
// has choices ["A","B","C"] with the answer stored as index 0.
func SeedQuestions(tb testing.TB, db *gorm.DB, quizID uint, questionType string, n int) []models.Question {
	tb.Helper()

	out := make([]models.Question, 0, n)
	for i := 0; i < n; i++ {
		q := models.Question{
			QuizID:  quizID,
			Type:    questionType,
			Text:    fmt.Sprintf("%s question %d", questionType, i+1),
			Choices: datatypes.JSON(`["A","B","C"]`),
			Answer:  datatypes.JSON(`0`),
		}
		mustCreate(tb, db, &q)
		out = append(out, q)
	}
	return out
}

func mustCreate(tb testing.TB, db *gorm.DB, value interface{}) {
	tb.Helper()
	if err := db.Create(value).Error; err != nil {
		tb.Fatalf("seed %T: %v", value, err)
	}
}
