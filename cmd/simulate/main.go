// Command simulate plays one automated match through the game service and
// prints its progress.
package main

import (
	"context"
	"fmt"
	"github.com/jmcvetta/randutil"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"old-maid-server/internal/core"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/entities"
	"old-maid-server/internal/random"
	"os"
	"strconv"
)

type seat struct {
	label string
	id    entities.PlayerID
	token entities.LongSecret
}

type match struct {
	ctx     context.Context
	service *core.Service
	gameID  entities.GameID
	seats   map[entities.PlayerID]seat
	order   []entities.PlayerID
}

func main() {
	players := pflag.Int("players", 4, "number of players (2-12)")
	maxTurns := pflag.Int("max-rounds", 2000, "give up after this many turns")
	verbose := pflag.Bool("verbose", false, "log every service call")
	pflag.Parse()

	logger := zerolog.Nop()
	if *verbose {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}

	store, err := database.Open(database.Config{Driver: database.DriverMemory}, logger)
	if err != nil {
		pterm.Fatal.Println(err)
	}
	defer store.Close()

	m, err := deal(context.Background(), core.NewService(store, random.Source{}, logger), *players)
	if err != nil {
		pterm.Fatal.Println(err)
	}
	if err := m.play(*maxTurns); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func deal(ctx context.Context, service *core.Service, n int) (*match, error) {
	room, owner, err := service.CreateWaitingRoom(ctx)
	if err != nil {
		return nil, err
	}
	for i := 1; i < n; i++ {
		if _, _, err := service.JoinWaitingRoom(ctx, room.DangerouslySecret()); err != nil {
			return nil, err
		}
	}
	room, err = service.GetWaitingRoom(ctx, room.ID())
	if err != nil {
		return nil, err
	}
	game, err := service.CreateGame(ctx, room.ID(), owner.DangerouslyAuthenticationToken())
	if err != nil {
		return nil, err
	}

	m := &match{ctx: ctx, service: service, gameID: game.ID(), seats: map[entities.PlayerID]seat{}}
	for i, p := range game.Players() {
		m.seats[p.ID()] = seat{
			label: "P" + strconv.Itoa(i+1),
			id:    p.ID(),
			token: p.DangerouslyAuthenticationToken(),
		}
		m.order = append(m.order, p.ID())
	}
	pterm.DefaultBox.WithTitle(pterm.LightCyan("|OLD MAID|")).WithTitleTopCenter().
		Println(pterm.Sprintfln("%d players, join code %s", n, room.DangerouslySecret()))
	return m, nil
}

func (m *match) play(maxTurns int) error {
	for _, id := range m.order {
		s := m.seats[id]
		_, p, _, err := m.service.DiscardPairs(m.ctx, m.gameID, s.id, s.token)
		if err != nil {
			return err
		}
		if p.CardCount() == 0 {
			if _, err := m.service.Win(m.ctx, m.gameID, s.id, s.token); err != nil {
				return err
			}
			pterm.Success.Printfln("%s is out before the first turn", s.label)
		}
	}
	if err := m.render("after the first discard"); err != nil {
		return err
	}

	for turn := 1; turn <= maxTurns; turn++ {
		finished, err := m.turn(turn)
		if err != nil {
			return err
		}
		if finished {
			return nil
		}
	}
	pterm.Warning.Printfln("no winner order after %d turns: the remaining hands only face players who are already out", maxTurns)
	return m.render("stalled")
}

// turn plays one turn and reports whether the game finished.
func (m *match) turn(n int) (bool, error) {
	game, players, err := m.service.GetGame(m.ctx, m.gameID)
	if err != nil {
		return false, err
	}
	hands := map[entities.PlayerID]*entities.Player{}
	for _, p := range players {
		hands[p.ID()] = p
	}
	me := m.seats[game.PlayerIDProceeding()]
	target := m.seats[game.PlayerIDProceeded()]

	if !game.HasWon(me.id) && hands[target.id].CardCount() > 0 {
		index, err := m.pull(hands[target.id], target)
		if err != nil {
			return false, err
		}
		if _, _, err := m.service.ProceedAction(m.ctx, m.gameID, me.id, index, me.token); err != nil {
			return false, err
		}
		_, mine, discarded, err := m.service.DiscardPairs(m.ctx, m.gameID, me.id, me.token)
		if err != nil {
			return false, err
		}
		pterm.Printfln("turn %3d  %s pulls from %s, discards %d, holds %d", n, me.label, target.label, len(discarded), mine.CardCount())

		for _, id := range []entities.PlayerID{me.id, target.id} {
			p, err := m.service.GetPlayer(m.ctx, id)
			if err != nil {
				return false, err
			}
			if p.CardCount() > 0 || game.HasWon(id) {
				continue
			}
			game, err = m.service.Win(m.ctx, m.gameID, id, me.token)
			if err != nil {
				return false, err
			}
			pterm.Success.Printfln("%s is out (place %d)", m.seats[id].label, len(game.Winners()))
			if game.IsFinished() {
				m.podium(game.Winners())
				return true, nil
			}
		}
	}

	_, err = m.service.ChangeTurn(m.ctx, m.gameID, me.id, me.token)
	return false, err
}

// pull lays the target's hand out on a shared telepresence and lifts one
// card out of it, the way a client does before pulling.
func (m *match) pull(target *entities.Player, owner seat) (int, error) {
	hand := target.CardsInHand()
	placements := make([]core.CardPlacement, len(hand))
	for i, c := range hand {
		placements[i] = core.CardPlacement{Card: c, X: float64(i+1) / float64(len(hand)+1), Y: 0.5}
	}
	telepresence, _, err := m.service.CreateHandTelepresence(m.ctx, owner.id, owner.token, placements)
	if err != nil {
		return 0, err
	}
	token := telepresence.DangerouslyAuthenticationToken()

	index, err := randutil.IntRange(0, len(hand))
	if err != nil {
		return 0, err
	}
	if _, err := m.service.LookCard(m.ctx, owner.id, index, token); err != nil {
		return 0, err
	}
	if _, err := m.service.HoldCard(m.ctx, owner.id, []int{index}, token); err != nil {
		return 0, err
	}
	if _, err := m.service.PickCard(m.ctx, owner.id, index, 1, token); err != nil {
		return 0, err
	}
	return index, nil
}

func (m *match) render(title string) error {
	game, players, err := m.service.GetGame(m.ctx, m.gameID)
	if err != nil {
		return err
	}
	data := pterm.TableData{{"seat", "cards", "status"}}
	for _, p := range players {
		status := pterm.LightGreen("playing")
		if game.HasWon(p.ID()) {
			status = pterm.Gray("out")
		}
		data = append(data, []string{m.seats[p.ID()].label, strconv.Itoa(p.CardCount()), status})
	}
	pterm.DefaultSection.Println(title)
	pterm.Printfln("%d cards on the table", len(game.Table().Cards()))
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (m *match) podium(winners []entities.PlayerID) {
	var lines string
	for i, id := range winners {
		lines += pterm.Sprintfln("%d. %s", i+1, pterm.LightCyan(m.seats[id].label))
	}
	pterm.DefaultBox.WithTitle(pterm.LightGreen("|FINISHED|")).WithTitleTopCenter().Println(lines)
	fmt.Println()
}
