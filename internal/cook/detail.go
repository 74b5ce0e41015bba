package cook

import (
	"strings"

	"github.com/verte-zerg/studyheat/internal/model"
	"github.com/verte-zerg/studyheat/internal/stats"
)

// MaxStage is the highest SRS stage.
const MaxStage = 9

// StageGroup is a named span of SRS stages.
type StageGroup struct {
	Name  string
	First int
	Last  int
}

// StageGroups lists the stage groups in ascending order.
var StageGroups = []StageGroup{
	{Name: "Apprentice", First: 1, Last: 4},
	{Name: "Guru", First: 5, Last: 6},
	{Name: "Master", First: 7, Last: 7},
	{Name: "Enlightened", First: 8, Last: 8},
	{Name: "Burned", First: 9, Last: 9},
}

// BeforeAfter pairs the number of items at a stage before and after answering.
type BeforeAfter struct {
	Before int
	After  int
}

// ItemTypes counts the subjects of a selection by type.
type ItemTypes struct {
	Radicals   int
	Kanji      int
	Vocabulary int
}

// Ratio is a right/wrong tally with its floored percentage.
type Ratio struct {
	Right    int
	Wrong    int
	Accuracy int
}

// Breakdown is the drill-down view of a range summary.
type Breakdown struct {
	Kind  model.Kind
	Items int
	// NetProgress is the sum of stage changes across the selection.
	NetProgress int
	Levels      [stats.MaxLevel + 1]int
	LevelBlocks [stats.MaxLevel / 10]int
	Stages      [MaxStage + 1]BeforeAfter
	Groups      []BeforeAfter
	Types       ItemTypes
	Pass        Ratio
	Answers     Ratio
}

// Detail derives the drill-down breakdown of kind from a range summary.
// Subjects missing from the lookup are counted as items but skipped in the
// level and type histograms.
func Detail(sum model.RangeSummary, kind model.Kind, subjects map[int64]model.Subject) Breakdown {
	ids := sum.IDs[IDsKey(kind)]
	out := Breakdown{
		Kind:   kind,
		Items:  len(ids),
		Groups: make([]BeforeAfter, len(StageGroups)),
	}
	for _, id := range ids {
		subj, ok := subjects[id]
		if !ok {
			continue
		}
		if subj.Level >= 1 && subj.Level <= stats.MaxLevel {
			out.Levels[subj.Level]++
			out.LevelBlocks[(subj.Level-1)/10]++
		}
		switch typePrefix(subj.Type) {
		case "rad":
			out.Types.Radicals++
		case "kan":
			out.Types.Kanji++
		case "voc":
			out.Types.Vocabulary++
		}
	}

	for s := 1; s <= MaxStage; s++ {
		out.Stages[s] = BeforeAfter{
			Before: sum.Counts[StageBeforeKey(kind, s)],
			After:  sum.Counts[StageAfterKey(kind, s)],
		}
		out.NetProgress += s * (out.Stages[s].After - out.Stages[s].Before)
	}
	for i, g := range StageGroups {
		for s := g.First; s <= g.Last; s++ {
			out.Groups[i].Before += out.Stages[s].Before
			out.Groups[i].After += out.Stages[s].After
		}
	}

	reviews := sum.Counts[CountKey(model.KindReviews)]
	pass := sum.Counts[KeyPass]
	out.Pass = Ratio{Right: pass, Wrong: reviews - pass, Accuracy: percent(pass, reviews)}

	// Radicals have a meaning but no reading.
	right := reviews*2 - out.Types.Radicals
	wrong := sum.Counts[KeyIncorrect]
	out.Answers = Ratio{Right: right, Wrong: wrong, Accuracy: percent(right, right+wrong)}
	return out
}

func typePrefix(t string) string {
	t = strings.ToLower(t)
	switch {
	case strings.HasPrefix(t, "rad"):
		return "rad"
	case strings.HasPrefix(t, "kanji"):
		return "kan"
	case strings.Contains(t, "vocab"):
		return "voc"
	}
	return ""
}

func percent(part, whole int) int {
	if whole <= 0 {
		return 0
	}
	return part * 100 / whole
}
