package cli

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/cramodoro/internal/client/models"
	"github.com/dmitrijs2005/cramodoro/internal/common"
)

var (
	getNumber       = GetNumber
	getOptionalText = GetOptionalText
)

func (a *App) ListDecks(ctx context.Context) error {
	decks, err := a.deckService.List(ctx)
	if err != nil {
		return err
	}
	if len(decks) == 0 {
		fmt.Fprintln(a.out, "No decks yet. Use 'adddeck' to create one.")
		return nil
	}
	for i, d := range decks {
		fmt.Fprintf(a.out, "%d. %s (%d cards, %d/%d min) [%s]\n", i+1, d.Name, len(d.Cards), d.PomodoroMinutes, d.RestMinutes, d.ID)
	}
	return nil
}

// pickDeck asks for a deck by list number or id.
func (a *App) pickDeck(ctx context.Context) (models.Deck, error) {
	decks, err := a.deckService.List(ctx)
	if err != nil {
		return models.Deck{}, err
	}
	if len(decks) == 0 {
		return models.Deck{}, fmt.Errorf("%w: no decks", common.ErrorNotFound)
	}
	s, err := getSimpleText(a.reader, "Enter deck number or id", a.out)
	if err != nil {
		return models.Deck{}, err
	}
	return resolveDeck(decks, s)
}

func resolveDeck(decks []models.Deck, s string) (models.Deck, error) {
	if i := models.FindDeck(decks, s); i >= 0 {
		return decks[i], nil
	}
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(decks) {
		return decks[n-1], nil
	}
	return models.Deck{}, fmt.Errorf("%w: deck %q", common.ErrorNotFound, s)
}

func (a *App) pickCard(d models.Deck) (int, error) {
	if len(d.Cards) == 0 {
		return 0, fmt.Errorf("%w: deck has no cards", common.ErrorNotFound)
	}
	printCards(a, d)
	n, err := getNumber(a.reader, "Enter card number", 1, a.out)
	if err != nil {
		return 0, err
	}
	return n - 1, nil
}

func printCards(a *App, d models.Deck) {
	for i, c := range d.Cards {
		fmt.Fprintf(a.out, "  %d. %s -> %s\n", i+1, c.Question, c.Answer)
	}
}

func (a *App) ShowDeck(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "%s: pomodoro %d min, rest %d min\n", d.Name, d.PomodoroMinutes, d.RestMinutes)
	if d.LastUsed != nil {
		fmt.Fprintf(a.out, "Last studied: %s\n", d.LastUsed.Local().Format("2006-01-02 15:04"))
	}
	printCards(a, d)
	return nil
}

func (a *App) AddDeck(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Deck name", a.out)
	if err != nil {
		return err
	}
	pomodoro, err := getNumber(a.reader, "Pomodoro minutes", 25, a.out)
	if err != nil {
		return err
	}
	rest, err := getNumber(a.reader, "Rest minutes", 5, a.out)
	if err != nil {
		return err
	}
	d, err := a.deckService.Create(ctx, name, pomodoro, rest)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deck %q created\n", d.Name)
	return nil
}

func (a *App) EditDeck(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	name, err := getOptionalText(a.reader, "Deck name", d.Name, a.out)
	if err != nil {
		return err
	}
	pomodoro, err := getNumber(a.reader, "Pomodoro minutes", d.PomodoroMinutes, a.out)
	if err != nil {
		return err
	}
	rest, err := getNumber(a.reader, "Rest minutes", d.RestMinutes, a.out)
	if err != nil {
		return err
	}
	if _, err := a.deckService.Update(ctx, d.ID, name, pomodoro, rest); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deck updated")
	return nil
}

func (a *App) DeleteDeck(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	if err := a.deckService.Delete(ctx, d.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deck %q deleted\n", d.Name)
	return nil
}

func (a *App) readCard(def models.Card) (models.Card, error) {
	q, err := getOptionalText(a.reader, "Question", def.Question, a.out)
	if err != nil {
		return models.Card{}, err
	}
	ans, err := getOptionalText(a.reader, "Answer", def.Answer, a.out)
	if err != nil {
		return models.Card{}, err
	}
	return models.Card{Question: q, Answer: ans}, nil
}

func (a *App) AddCard(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	c, err := a.readCard(models.Card{})
	if err != nil {
		return err
	}
	d, err = a.deckService.AddCard(ctx, d.ID, c)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Card added, %q now has %d cards\n", d.Name, len(d.Cards))
	return nil
}

func (a *App) EditCard(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	i, err := a.pickCard(d)
	if err != nil {
		return err
	}
	var cur models.Card
	if i >= 0 && i < len(d.Cards) {
		cur = d.Cards[i]
	}
	c, err := a.readCard(cur)
	if err != nil {
		return err
	}
	if _, err := a.deckService.UpdateCard(ctx, d.ID, i, c); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Card updated")
	return nil
}

func (a *App) DeleteCard(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	i, err := a.pickCard(d)
	if err != nil {
		return err
	}
	if _, err := a.deckService.DeleteCard(ctx, d.ID, i); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Card deleted")
	return nil
}

// Study walks through the deck's cards: Enter reveals the answer, "q" stops.
func (a *App) Study(ctx context.Context) error {
	d, err := a.pickDeck(ctx)
	if err != nil {
		return err
	}
	if len(d.Cards) == 0 {
		return fmt.Errorf("%w: deck has no cards", common.ErrorNotFound)
	}
	if err := a.deckService.MarkUsed(ctx, d.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Studying %q: %d min focus, %d min rest\n", d.Name, d.PomodoroMinutes, d.RestMinutes)

	for i, c := range d.Cards {
		fmt.Fprintf(a.out, "[%d/%d] %s\n", i+1, len(d.Cards), c.Question)
		if stop := waitKey(a.reader); stop {
			return nil
		}
		fmt.Fprintf(a.out, "  -> %s\n", c.Answer)
	}
	fmt.Fprintln(a.out, "Deck finished")
	return nil
}

// waitKey reads one line and reports whether the user asked to stop.
func waitKey(r *bufio.Reader) bool {
	line, err := r.ReadString('\n')
	if err != nil && line == "" {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(line), "q")
}
