// Package dataset generates a deterministic synthetic customer population
// for demos, evaluation and benchmarks.
//
// The generator emits a base population plus perturbed duplicates at a
// configured rate. Perturbations mimic the noise real customer data carries:
// email plus-suffixes and dot variants, nickname expansion, surname typos
// and case noise, street suffix flips and address annotations. The
// duplicate links are retained as ground truth so a clustering can be
// scored against them.
package dataset

import (
	"errors"
	"fmt"
	"math/rand"
	"strings"

	"github.com/hupe1980/entigo/cluster"
	"github.com/hupe1980/entigo/record"
)

// ErrInvalidConfig is returned for out-of-range generator settings.
var ErrInvalidConfig = errors.New("invalid dataset config")

// Config controls the generated population.
type Config struct {
	// Size is the total number of records to emit, duplicates included.
	Size int

	// DuplicateRate is the fraction of emitted records that are perturbed
	// copies of a base record. Must be in [0, 1).
	DuplicateRate float64

	// Seed makes the population reproducible: equal configs generate
	// byte-identical datasets.
	Seed int64
}

// DefaultConfig returns the population used by the demo command.
func DefaultConfig() Config {
	return Config{
		Size:          200,
		DuplicateRate: 0.3,
		Seed:          42,
	}
}

// Dataset is a generated population with its ground-truth duplicate links.
type Dataset struct {
	// Records holds the shuffled population.
	Records *record.Collection

	// GroundTruth maps each duplicate's id to the base record it was
	// perturbed from.
	GroundTruth map[record.ID]record.ID
}

// Metrics scores a clustering against the ground truth.
type Metrics struct {
	// TruePairs is the number of record pairs the ground truth links,
	// counting all pairs within a base record's duplicate group.
	TruePairs int

	// RecoveredPairs is how many of those pairs share a cluster.
	RecoveredPairs int

	// ClusteredPairs is the number of pairs the clustering put together.
	ClusteredPairs int

	// CorrectPairs is how many clustered pairs the ground truth confirms.
	CorrectPairs int

	// Recall is RecoveredPairs / TruePairs (1.0 when there is no truth).
	Recall float64

	// Precision is CorrectPairs / ClusteredPairs (1.0 when nothing merged).
	Precision float64
}

var (
	firstNames = []string{
		"alex", "chris", "dan", "mike", "beth", "tom",
		"maria", "james", "sarah", "peter", "laura", "kevin",
		"anna", "david", "julia", "martin", "clara", "oscar",
	}
	lastNames = []string{
		"smith", "johnson", "miller", "brown", "garcia", "davis",
		"wilson", "martinez", "lopez", "taylor", "anderson", "thomas",
	}
	domains     = []string{"gmail.com", "yahoo.com", "outlook.com", "example.com", "fastmail.com"}
	streetNames = []string{"Oak", "Maple", "Cedar", "Elm", "Pine", "Main", "Lake", "Hill"}
	suffixes    = []string{"St", "Ave", "Rd", "Blvd", "Ln"}
	cities      = []string{"Springfield", "Riverton", "Fairview", "Georgetown", "Clinton", "Salem", "Madison", "Arlington"}

	// nicknames maps short first names to their long forms. Perturbation
	// swaps whichever direction applies.
	nicknames = map[string]string{
		"alex":  "alexander",
		"chris": "christopher",
		"dan":   "daniel",
		"mike":  "michael",
		"beth":  "elizabeth",
		"tom":   "thomas",
	}
	longForms = func() map[string]string {
		m := make(map[string]string, len(nicknames))
		for short, long := range nicknames {
			m[long] = short
		}
		return m
	}()

	suffixFlips = func() map[string]string {
		short := map[string]string{
			"St":   "Street",
			"Ave":  "Avenue",
			"Rd":   "Road",
			"Blvd": "Boulevard",
			"Ln":   "Lane",
		}
		m := make(map[string]string, len(short)*2)
		for s, l := range short {
			m[s] = l
			m[l] = s
		}
		return m
	}()

	annotations = []string{" Apt 4B", " Unit 2", " Suite 300", " #12"}
	emailTags   = []string{"promo", "spam", "news", "shop"}
)

// profile is the working representation of one customer before it is
// materialized into a Record.
type profile struct {
	first  string
	last   string
	email  string
	phone  string
	street string
	city   string
}

func (p profile) fields() map[string]string {
	return map[string]string{
		"full_name": strings.TrimSpace(title(p.first) + " " + title(p.last)),
		"email":     p.email,
		"phone":     p.phone,
		"street":    p.street,
		"city":      p.city,
	}
}

// Generate builds a population from the config. Equal configs generate
// identical datasets.
func Generate(cfg Config) (*Dataset, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("%w: size must be positive, got %d", ErrInvalidConfig, cfg.Size)
	}
	if cfg.DuplicateRate < 0 || cfg.DuplicateRate >= 1 {
		return nil, fmt.Errorf("%w: duplicate rate must be in [0, 1), got %g", ErrInvalidConfig, cfg.DuplicateRate)
	}

	rng := rand.New(rand.NewSource(cfg.Seed)) // nolint gosec

	numDuplicates := int(float64(cfg.Size) * cfg.DuplicateRate)
	numBase := cfg.Size - numDuplicates

	usedEmails := make(map[string]int)
	bases := make([]profile, numBase)
	for i := range bases {
		bases[i] = newProfile(rng, usedEmails)
	}

	type entry struct {
		id record.ID
		p  profile
	}

	entries := make([]entry, 0, cfg.Size)
	next := 0
	newID := func() record.ID {
		next++
		return record.ID(fmt.Sprintf("cust_%07d", next))
	}

	baseIDs := make([]record.ID, numBase)
	for i, b := range bases {
		baseIDs[i] = newID()
		entries = append(entries, entry{id: baseIDs[i], p: b})
	}

	truth := make(map[record.ID]record.ID, numDuplicates)
	for i := 0; i < numDuplicates; i++ {
		j := rng.Intn(numBase)
		dup := perturb(rng, bases[j])
		id := newID()
		truth[id] = baseIDs[j]
		entries = append(entries, entry{id: id, p: dup})
	}

	// Shuffle so duplicates are not trivially adjacent to their base.
	rng.Shuffle(len(entries), func(i, j int) {
		entries[i], entries[j] = entries[j], entries[i]
	})

	records := make([]record.Record, len(entries))
	for i, e := range entries {
		records[i] = record.New(e.id, e.p.fields())
	}

	coll, err := record.NewCollection(records...)
	if err != nil {
		return nil, err
	}

	return &Dataset{Records: coll, GroundTruth: truth}, nil
}

// MustGenerate is like Generate but panics on error. Intended for demos and
// benchmarks with known-good configs.
func MustGenerate(cfg Config) *Dataset {
	d, err := Generate(cfg)
	if err != nil {
		panic(err)
	}
	return d
}

// Evaluate scores a clustering against the dataset's ground truth.
func (d *Dataset) Evaluate(clusters []cluster.Cluster) Metrics {
	// Truth groups: each base record with all duplicates derived from it.
	groups := make(map[record.ID][]record.ID)
	for dup, base := range d.GroundTruth {
		if len(groups[base]) == 0 {
			groups[base] = append(groups[base], base)
		}
		groups[base] = append(groups[base], dup)
	}

	groupOf := make(map[record.ID]record.ID)
	for base, members := range groups {
		for _, id := range members {
			groupOf[id] = base
		}
	}

	clusterOf := make(map[record.ID]string)
	for _, c := range clusters {
		for _, id := range c.Members {
			clusterOf[id] = c.Label
		}
	}

	var m Metrics

	for _, members := range groups {
		m.TruePairs += pairCount(len(members))
		perCluster := make(map[string]int)
		for _, id := range members {
			if label, ok := clusterOf[id]; ok {
				perCluster[label]++
			}
		}
		for _, n := range perCluster {
			m.RecoveredPairs += pairCount(n)
		}
	}

	for _, c := range clusters {
		m.ClusteredPairs += pairCount(len(c.Members))
		perGroup := make(map[record.ID]int)
		for _, id := range c.Members {
			if base, ok := groupOf[id]; ok {
				perGroup[base]++
			}
		}
		for _, n := range perGroup {
			m.CorrectPairs += pairCount(n)
		}
	}

	m.Recall = 1
	if m.TruePairs > 0 {
		m.Recall = float64(m.RecoveredPairs) / float64(m.TruePairs)
	}
	m.Precision = 1
	if m.ClusteredPairs > 0 {
		m.Precision = float64(m.CorrectPairs) / float64(m.ClusteredPairs)
	}

	return m
}

func pairCount(n int) int {
	return n * (n - 1) / 2
}

func newProfile(rng *rand.Rand, usedEmails map[string]int) profile {
	first := firstNames[rng.Intn(len(firstNames))]
	last := lastNames[rng.Intn(len(lastNames))]

	local := first + "." + last
	usedEmails[local]++
	if n := usedEmails[local]; n > 1 {
		local = fmt.Sprintf("%s%d", local, n)
	}

	return profile{
		first:  first,
		last:   last,
		email:  local + "@" + domains[rng.Intn(len(domains))],
		phone:  fmt.Sprintf("+1-%03d-%03d-%04d", 200+rng.Intn(800), rng.Intn(1000), rng.Intn(10000)),
		street: fmt.Sprintf("%d %s %s", 1+rng.Intn(999), streetNames[rng.Intn(len(streetNames))], suffixes[rng.Intn(len(suffixes))]),
		city:   cities[rng.Intn(len(cities))],
	}
}

type perturbation func(rng *rand.Rand, p profile) profile

var perturbations = []perturbation{
	perturbEmailPlus,
	perturbEmailDots,
	perturbNickname,
	perturbSurname,
	perturbStreetSuffix,
	perturbAnnotation,
}

// perturb applies one or two distinct perturbations to a copy of the base.
func perturb(rng *rand.Rand, base profile) profile {
	order := rng.Perm(len(perturbations))
	count := 1 + rng.Intn(2)

	p := base
	for _, i := range order[:count] {
		p = perturbations[i](rng, p)
	}
	return p
}

// perturbEmailPlus appends a plus-suffix to the email's local part, which
// most providers route to the same mailbox.
func perturbEmailPlus(rng *rand.Rand, p profile) profile {
	local, domain, ok := strings.Cut(p.email, "@")
	if !ok {
		return p
	}
	p.email = local + "+" + emailTags[rng.Intn(len(emailTags))] + "@" + domain
	return p
}

// perturbEmailDots toggles dots in the email's local part, which Gmail
// ignores entirely.
func perturbEmailDots(rng *rand.Rand, p profile) profile {
	local, domain, ok := strings.Cut(p.email, "@")
	if !ok {
		return p
	}
	if strings.Contains(local, ".") {
		local = strings.ReplaceAll(local, ".", "")
	} else {
		mid := len(local) / 2
		local = local[:mid] + "." + local[mid:]
	}
	p.email = local + "@" + domain
	return p
}

// perturbNickname swaps the first name between its short and long form.
func perturbNickname(_ *rand.Rand, p profile) profile {
	if long, ok := nicknames[p.first]; ok {
		p.first = long
	} else if short, ok := longForms[p.first]; ok {
		p.first = short
	}
	return p
}

// perturbSurname introduces a truncation typo or all-caps case noise.
func perturbSurname(rng *rand.Rand, p profile) profile {
	if len(p.last) > 4 && rng.Intn(2) == 0 {
		p.last = p.last[:len(p.last)-1]
		return p
	}
	p.last = strings.ToUpper(p.last)
	return p
}

// perturbStreetSuffix flips the street suffix between its short and long
// written form.
func perturbStreetSuffix(_ *rand.Rand, p profile) profile {
	tokens := strings.Fields(p.street)
	if len(tokens) == 0 {
		return p
	}
	last := tokens[len(tokens)-1]
	if flipped, ok := suffixFlips[last]; ok {
		tokens[len(tokens)-1] = flipped
		p.street = strings.Join(tokens, " ")
	}
	return p
}

// perturbAnnotation appends an apartment or unit annotation to the street.
func perturbAnnotation(rng *rand.Rand, p profile) profile {
	p.street += annotations[rng.Intn(len(annotations))]
	return p
}

func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
