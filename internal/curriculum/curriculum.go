// Package curriculum loads the embedded Iqra level definitions.
package curriculum

import (
	_ "embed"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed curriculum.yaml
var curriculumYAML []byte

// Letter is a single letter of the alphabet.
type Letter struct {
	ID    string `yaml:"id" json:"id"`
	Glyph string `yaml:"glyph" json:"glyph"`
	Sound string `yaml:"sound" json:"sound"`
}

// Word is a vocalized word used for reading practice.
type Word struct {
	ID      string `yaml:"id" json:"id"`
	Text    string `yaml:"text" json:"text"`
	Meaning string `yaml:"meaning" json:"meaning"`
}

// Level groups the letters and words introduced together.
type Level struct {
	Level       int      `yaml:"level" json:"level"`
	Title       string   `yaml:"title" json:"title"`
	Description string   `yaml:"description" json:"description"` // markdown
	Letters     []Letter `yaml:"letters" json:"letters,omitempty"`
	Words       []Word   `yaml:"words" json:"words,omitempty"`
}

// Curriculum is the ordered list of levels.
type Curriculum struct {
	Levels []Level `yaml:"levels" json:"levels"`
}

var (
	defaultOnce       sync.Once
	defaultCurriculum *Curriculum
	defaultErr        error
)

// Default returns the embedded curriculum, parsed once.
func Default() (*Curriculum, error) {
	defaultOnce.Do(func() {
		defaultCurriculum, defaultErr = Parse(curriculumYAML)
	})
	return defaultCurriculum, defaultErr
}

// Parse decodes a curriculum document and validates level numbering and id uniqueness.
func Parse(data []byte) (*Curriculum, error) {
	var c Curriculum
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, errors.Wrap(err, "failed to parse curriculum")
	}
	if len(c.Levels) == 0 {
		return nil, errors.New("curriculum has no levels")
	}

	sort.Slice(c.Levels, func(i, j int) bool {
		return c.Levels[i].Level < c.Levels[j].Level
	})

	seen := make(map[string]bool)
	for i, level := range c.Levels {
		if level.Level <= 0 {
			return nil, errors.Errorf("invalid level number %d", level.Level)
		}
		if i > 0 && c.Levels[i-1].Level == level.Level {
			return nil, errors.Errorf("duplicate level %d", level.Level)
		}
		for _, letter := range level.Letters {
			if letter.ID == "" || seen[letter.ID] {
				return nil, errors.Errorf("level %d: missing or duplicate id %q", level.Level, letter.ID)
			}
			seen[letter.ID] = true
		}
		for _, word := range level.Words {
			if word.ID == "" || seen[word.ID] {
				return nil, errors.Errorf("level %d: missing or duplicate id %q", level.Level, word.ID)
			}
			seen[word.ID] = true
		}
	}
	return &c, nil
}

// Level returns the level with the given number.
func (c *Curriculum) Level(n int) (Level, bool) {
	for _, level := range c.Levels {
		if level.Level == n {
			return level, true
		}
	}
	return Level{}, false
}

// UpTo returns every level with a number less than or equal to n.
func (c *Curriculum) UpTo(n int) []Level {
	var levels []Level
	for _, level := range c.Levels {
		if level.Level <= n {
			levels = append(levels, level)
		}
	}
	return levels
}

// LettersUpTo returns the letters of every level up to n, in curriculum order.
func (c *Curriculum) LettersUpTo(n int) []Letter {
	var letters []Letter
	for _, level := range c.UpTo(n) {
		letters = append(letters, level.Letters...)
	}
	return letters
}

// MaxLevel returns the highest level number.
func (c *Curriculum) MaxLevel() int {
	return c.Levels[len(c.Levels)-1].Level
}
