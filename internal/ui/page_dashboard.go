package ui

import (
	. "maragu.dev/gomponents"
	. "maragu.dev/gomponents/html"
)

type overviewCardData struct {
	Title       string
	Description string
	Href        string
}

func dashboardPage(s shell, cards []overviewCardData) Node {
	nodes := make([]Node, 0, len(cards))
	for _, card := range cards {
		nodes = append(nodes, Div(
			Class(cardClass()),
			H2(Text(card.Title)),
			P(Class(mutedClass()), Text(card.Description)),
			A(Href(card.Href), Text("Open "+card.Title+" ->")),
		))
	}
	if len(nodes) == 0 {
		nodes = append(nodes, emptyStateCard("No modules are registered.", "", ""))
	}
	return appPage(s, Div(Class("card-grid"), Group(nodes)))
}
