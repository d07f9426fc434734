// Package symptom holds the static symptom catalog and the per-request
// selections built from it.
package symptom

import (
	"fmt"
	"sort"
)

// Well-known symptom ids referenced by the scoring rules.
const (
	Fever           = "fever"
	Cough           = "cough"
	RunnyNose       = "runny_nose"
	Sneezing        = "sneezing"
	SoreThroat      = "sore_throat"
	NasalCongestion = "nasal_congestion"
	Headache        = "headache"
	Fatigue         = "fatigue"
	MusclePain      = "muscle_pain"
	Chills          = "chills"
	ItchyEyes       = "itchy_eyes"
	ChestPain       = "chest_pain"
	ShortnessBreath = "shortness_breath"
	Palpitations    = "palpitations"
	Nausea          = "nausea"
	Vomiting        = "vomiting"
	Diarrhea        = "diarrhea"
	AbdominalPain   = "abdominal_pain"
	Dizziness       = "dizziness"
	Rash            = "rash"
	Itching         = "itching"
	JointPain       = "joint_pain"
	BackPain        = "back_pain"
	EarPain         = "ear_pain"
	PainfulUrine    = "painful_urination"
	Insomnia        = "insomnia"
	Anxiety         = "anxiety"
)

var defaultSymptoms = []Symptom{
	{ID: Fever, Name: "Ateş", Description: "Vücut sıcaklığının 38°C üzerine çıkması", Category: CategoryGeneral},
	{ID: Fatigue, Name: "Halsizlik", Description: "Olağandışı yorgunluk ve enerji eksikliği", Category: CategoryGeneral},
	{ID: Chills, Name: "Titreme", Description: "Üşüme hissiyle birlikte titreme", Category: CategoryGeneral},
	{ID: Cough, Name: "Öksürük", Description: "Kuru veya balgamlı öksürük", Category: CategoryRespiratory},
	{ID: ShortnessBreath, Name: "Nefes Darlığı", Description: "Nefes almakta zorlanma", Category: CategoryRespiratory},
	{ID: Sneezing, Name: "Hapşırma", Description: "Tekrarlayan hapşırma nöbetleri", Category: CategoryRespiratory},
	{ID: ChestPain, Name: "Göğüs Ağrısı", Description: "Göğüste ağrı, baskı veya sıkışma", Category: CategoryCardiovascular},
	{ID: Palpitations, Name: "Çarpıntı", Description: "Kalbin hızlı veya düzensiz attığını hissetme", Category: CategoryCardiovascular},
	{ID: Nausea, Name: "Bulantı", Description: "Mide bulantısı", Category: CategoryDigestive},
	{ID: Vomiting, Name: "Kusma", Description: "Mide içeriğinin ağızdan çıkarılması", Category: CategoryDigestive},
	{ID: Diarrhea, Name: "İshal", Description: "Sık ve sulu dışkılama", Category: CategoryDigestive},
	{ID: AbdominalPain, Name: "Karın Ağrısı", Description: "Karın bölgesinde ağrı veya kramp", Category: CategoryDigestive},
	{ID: Headache, Name: "Baş Ağrısı", Description: "Başın herhangi bir bölgesinde ağrı", Category: CategoryNeurological},
	{ID: Dizziness, Name: "Baş Dönmesi", Description: "Sersemlik veya dönme hissi", Category: CategoryNeurological},
	{ID: MusclePain, Name: "Kas Ağrısı", Description: "Yaygın kas ağrısı", Category: CategoryMusculoskeletal},
	{ID: JointPain, Name: "Eklem Ağrısı", Description: "Eklemlerde ağrı veya sertlik", Category: CategoryMusculoskeletal},
	{ID: BackPain, Name: "Bel Ağrısı", Description: "Bel bölgesinde ağrı", Category: CategoryMusculoskeletal},
	{ID: Rash, Name: "Döküntü", Description: "Ciltte kızarıklık veya döküntü", Category: CategorySkin},
	{ID: Itching, Name: "Kaşıntı", Description: "Ciltte kaşıntı", Category: CategorySkin},
	{ID: RunnyNose, Name: "Burun Akıntısı", Description: "Sulu veya koyu burun akıntısı", Category: CategoryEarNoseThroat},
	{ID: NasalCongestion, Name: "Burun Tıkanıklığı", Description: "Burundan nefes alamama", Category: CategoryEarNoseThroat},
	{ID: SoreThroat, Name: "Boğaz Ağrısı", Description: "Yutkunurken ağrı veya yanma", Category: CategoryEarNoseThroat},
	{ID: EarPain, Name: "Kulak Ağrısı", Description: "Kulakta ağrı veya dolgunluk", Category: CategoryEarNoseThroat},
	{ID: ItchyEyes, Name: "Göz Kaşıntısı", Description: "Gözlerde kaşıntı ve sulanma", Category: CategoryEye},
	{ID: PainfulUrine, Name: "İdrarda Yanma", Description: "İdrar yaparken yanma veya ağrı", Category: CategoryUrinary},
	{ID: Insomnia, Name: "Uykusuzluk", Description: "Uykuya dalamama veya sık uyanma", Category: CategoryPsychological},
	{ID: Anxiety, Name: "Kaygı", Description: "Yoğun endişe veya huzursuzluk", Category: CategoryPsychological},
}

// Catalog is the read-only symptom list offered to the user.
type Catalog struct {
	symptoms []Symptom
	byID     map[string]int
}

// DefaultCatalog returns the built-in symptom list with default severities.
func DefaultCatalog() *Catalog {
	return NewCatalog(defaultSymptoms)
}

func NewCatalog(symptoms []Symptom) *Catalog {
	c := &Catalog{
		symptoms: make([]Symptom, 0, len(symptoms)),
		byID:     make(map[string]int, len(symptoms)),
	}
	for _, s := range symptoms {
		if _, exists := c.byID[s.ID]; exists {
			continue
		}
		if s.Severity == 0 {
			s.Severity = DefaultSeverity
		}
		c.byID[s.ID] = len(c.symptoms)
		c.symptoms = append(c.symptoms, s)
	}
	return c
}

// All returns every symptom in catalog order.
func (c *Catalog) All() []Symptom {
	out := make([]Symptom, len(c.symptoms))
	copy(out, c.symptoms)
	return out
}

// ByCategory groups the catalog by category, keeping catalog order inside each group.
func (c *Catalog) ByCategory() map[Category][]Symptom {
	grouped := make(map[Category][]Symptom)
	for _, s := range c.symptoms {
		grouped[s.Category] = append(grouped[s.Category], s)
	}
	return grouped
}

// Categories lists the categories present in the catalog, sorted.
func (c *Catalog) Categories() []Category {
	seen := make(map[Category]bool)
	var cats []Category
	for _, s := range c.symptoms {
		if !seen[s.Category] {
			seen[s.Category] = true
			cats = append(cats, s.Category)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
	return cats
}

func (c *Catalog) Get(id string) (Symptom, error) {
	i, ok := c.byID[id]
	if !ok {
		return Symptom{}, fmt.Errorf("%w: %s", ErrUnknownSymptom, id)
	}
	return c.symptoms[i], nil
}

// Select builds a selection for the given symptom id. A zero severity keeps
// the catalog default; anything else is clamped to 1..5.
func (c *Catalog) Select(id string, severity int, answers map[string]string) (Selection, error) {
	s, err := c.Get(id)
	if err != nil {
		return Selection{}, err
	}
	s = s.WithSelected(true)
	if severity != 0 {
		s = s.WithSeverity(severity)
	}
	return Selection{Symptom: s, Answers: answers}, nil
}
