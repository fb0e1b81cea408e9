package seed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math/rand"
	"strconv"
)

const ComputerScience = "Computer Science"

var StudentColumns = []string{"student_id", "full_name", "major", "year", "gpa"}

var (
	firstNames = []string{"Ada", "Alan", "Grace", "Edsger", "Barbara", "Donald", "Margaret", "Claude", "Frances", "Dennis", "Radia", "Ken"}
	lastNames  = []string{"Lovelace", "Turing", "Hopper", "Dijkstra", "Liskov", "Knuth", "Hamilton", "Shannon", "Allen", "Ritchie", "Perlman", "Thompson"}
	majors     = []string{ComputerScience, "Mathematics", "Physics", "Biology", "History", "Economics"}
)

type Student struct {
	ID       int
	FullName string
	Major    string
	Year     int
	GPA      float64
}

func (s Student) record() []string {
	return []string{
		strconv.Itoa(s.ID),
		s.FullName,
		s.Major,
		strconv.Itoa(s.Year),
		strconv.FormatFloat(s.GPA, 'f', 2, 64),
	}
}

type Generator struct {
	rnd *rand.Rand
}

func NewGenerator(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Students returns count students. The first student always majors in
// Computer Science so the demo phrase has at least one match.
func (g *Generator) Students(count int) []Student {
	students := make([]Student, 0, count)
	for i := 1; i <= count; i++ {
		major := pickOne(g.rnd, majors)
		if i == 1 {
			major = ComputerScience
		}
		students = append(students, Student{
			ID:       1000 + i,
			FullName: pickOne(g.rnd, firstNames) + " " + pickOne(g.rnd, lastNames),
			Major:    major,
			Year:     g.rnd.Intn(4) + 1,
			GPA:      float64(200+g.rnd.Intn(201)) / 100,
		})
	}
	return students
}

func EncodeCSV(students []Student) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(StudentColumns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, student := range students {
		if err := writer.Write(student.record()); err != nil {
			return nil, fmt.Errorf("write student %d: %w", student.ID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func pickOne(r *rand.Rand, values []string) string {
	return values[r.Intn(len(values))]
}
