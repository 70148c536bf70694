package matching

import (
	"persona-match/internal/domain"
)

// AdviceRules agrupa umbrales y mensajes; los valores por defecto vienen de DefaultAdviceRules.
type AdviceRules struct {
	OpennessGap          int `yaml:"openness_gap"`
	ConscientiousnessGap int `yaml:"conscientiousness_gap"`
	ExtraversionGap      int `yaml:"extraversion_gap"`
	LowAgreeableness     int `yaml:"low_agreeableness"`
	HighNeuroticism      int `yaml:"high_neuroticism"`

	NoveltyMessage      string `yaml:"novelty_message"`
	PlanningMessage     string `yaml:"planning_message"`
	SocialEnergyMessage string `yaml:"social_energy_message"`
	ListeningMessage    string `yaml:"listening_message"`
	SupportMessage      string `yaml:"support_message"`
	DefaultMessage      string `yaml:"default_message"`
}

const (
	AdviceNovelty      = "Balance adventure and routine - plan both exciting activities and comfortable downtime"
	AdvicePlanning     = "Respect different approaches to planning and organization"
	AdviceSocialEnergy = "Balance social activities with quiet time together"
	AdviceListening    = "Practice active listening and express appreciation regularly"
	AdviceSupport      = "Create a supportive environment and communicate openly about stress"
	AdviceDefault      = "You have great natural compatibility! Focus on open communication and mutual respect."
)

func DefaultAdviceRules() AdviceRules {
	return AdviceRules{
		OpennessGap:          8,
		ConscientiousnessGap: 6,
		ExtraversionGap:      8,
		LowAgreeableness:     10,
		HighNeuroticism:      15,
		NoveltyMessage:       AdviceNovelty,
		PlanningMessage:      AdvicePlanning,
		SocialEnergyMessage:  AdviceSocialEnergy,
		ListeningMessage:     AdviceListening,
		SupportMessage:       AdviceSupport,
		DefaultMessage:       AdviceDefault,
	}
}

// withDefaults devuelve DefaultAdviceRules para el valor cero. En otro caso los umbrales se
// respetan tal cual (0 es un umbral valido) y solo los mensajes vacios toman el texto por defecto.
func (r AdviceRules) withDefaults() AdviceRules {
	d := DefaultAdviceRules()
	if r == (AdviceRules{}) {
		return d
	}
	if r.NoveltyMessage == "" {
		r.NoveltyMessage = d.NoveltyMessage
	}
	if r.PlanningMessage == "" {
		r.PlanningMessage = d.PlanningMessage
	}
	if r.SocialEnergyMessage == "" {
		r.SocialEnergyMessage = d.SocialEnergyMessage
	}
	if r.ListeningMessage == "" {
		r.ListeningMessage = d.ListeningMessage
	}
	if r.SupportMessage == "" {
		r.SupportMessage = d.SupportMessage
	}
	if r.DefaultMessage == "" {
		r.DefaultMessage = d.DefaultMessage
	}
	return r
}

// Advisor genera consejos por reglas independientes, en orden fijo.
type Advisor struct {
	rules AdviceRules
}

func NewAdvisor(rules AdviceRules) Advisor {
	return Advisor{rules: rules.withDefaults()}
}

// Advise evalua todas las reglas (no son excluyentes). Si ninguna aplica devuelve
// un unico mensaje por defecto.
func (a Advisor) Advise(p1, p2 domain.Profile) ([]string, error) {
	if err := p1.RequireComplete(); err != nil {
		return nil, err
	}
	if err := p2.RequireComplete(); err != nil {
		return nil, err
	}
	r := a.rules

	var advice []string
	if gap(p1, p2, domain.TraitOpenness) > r.OpennessGap {
		advice = append(advice, r.NoveltyMessage)
	}
	if gap(p1, p2, domain.TraitConscientiousness) > r.ConscientiousnessGap {
		advice = append(advice, r.PlanningMessage)
	}
	if gap(p1, p2, domain.TraitExtraversion) > r.ExtraversionGap {
		advice = append(advice, r.SocialEnergyMessage)
	}
	if p1[domain.TraitAgreeableness] < r.LowAgreeableness || p2[domain.TraitAgreeableness] < r.LowAgreeableness {
		advice = append(advice, r.ListeningMessage)
	}
	if p1[domain.TraitNeuroticism] > r.HighNeuroticism || p2[domain.TraitNeuroticism] > r.HighNeuroticism {
		advice = append(advice, r.SupportMessage)
	}

	if len(advice) == 0 {
		return []string{r.DefaultMessage}, nil
	}
	return advice, nil
}

func gap(a, b domain.Profile, t domain.Trait) int {
	d := a[t] - b[t]
	if d < 0 {
		return -d
	}
	return d
}
