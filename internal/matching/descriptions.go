package matching

import "persona-match/internal/domain"

// Descriptions contiene un texto por (rasgo, categoria).
type Descriptions struct {
	text [domain.NumTraits][domain.NumCategories]string
}

var defaultDescriptions = func() Descriptions {
	table := map[domain.Trait][domain.NumCategories]string{
		domain.TraitOpenness: {
			"You prefer familiar routines and traditional approaches",
			"You tend to be practical and prefer conventional ways",
			"You balance creativity with practicality",
			"You're curious and enjoy exploring new ideas",
			"You're highly creative and love novel experiences",
		},
		domain.TraitConscientiousness: {
			"You tend to be spontaneous and flexible with schedules",
			"You're somewhat disorganized but adaptable",
			"You balance structure with flexibility",
			"You're organized, reliable, and goal-oriented",
			"You're highly disciplined and detail-oriented",
		},
		domain.TraitExtraversion: {
			"You strongly prefer solitude and quiet environments",
			"You tend to be reserved and introspective",
			"You enjoy both social time and alone time",
			"You're sociable and gain energy from others",
			"You're highly outgoing and love being around people",
		},
		domain.TraitAgreeableness: {
			"You tend to be competitive and skeptical of others",
			"You can be somewhat critical or argumentative",
			"You balance cooperation with standing your ground",
			"You're trusting, helpful, and empathetic",
			"You're extremely compassionate and generous",
		},
		domain.TraitNeuroticism: {
			"You're exceptionally calm and emotionally stable",
			"You handle stress well and stay composed",
			"You experience normal levels of stress and emotion",
			"You tend to worry and feel stress more intensely",
			"You often experience anxiety and emotional ups and downs",
		},
	}
	var d Descriptions
	for t, row := range table {
		d.text[t.Index()] = row
	}
	return d
}()

func DefaultDescriptions() Descriptions {
	return defaultDescriptions
}

const noDescription = "No description available"

func (d Descriptions) Describe(t domain.Trait, c domain.TraitCategory) string {
	i := t.Index()
	if i < 0 || !c.Valid() || d.text[i][c] == "" {
		return noDescription
	}
	return d.text[i][c]
}
