package services

import (
	"errors"
	"time"

	"github.com/eruedin/swad-core-sub002/internal/errs"
	"github.com/eruedin/swad-core-sub002/internal/models"
)

// StatusView is what a reconnecting presenter or a polling student sees.
// The countdown is always recomputed from the stored timestamps, and the
// answer data included depends on who is looking.
type StatusView struct {
	MatchID             uint         `json:"match_id"`
	GameID              uint         `json:"game_id"`
	Title               string       `json:"title"`
	Phase               models.Phase `json:"phase"`
	QuestionIndex       uint         `json:"question_index"`
	TotalQuestions      int          `json:"total_questions"`
	Finished            bool         `json:"finished"`
	Playing             bool         `json:"playing"`
	Countdown           int64        `json:"countdown"`
	NumCols             int          `json:"num_cols"`
	NumPlayers          int          `json:"num_players"`
	ShowQuestionResults bool         `json:"show_question_results"`
	ShowUserResults     bool         `json:"show_user_results"`

	Question *QuestionView  `json:"question,omitempty"`
	MyAnswer *AnswerView    `json:"my_answer,omitempty"`
	Tally    *TallyView     `json:"tally,omitempty"`
	Review   []AnswerReview `json:"review,omitempty"`
}

type QuestionView struct {
	Index   uint         `json:"index"`
	Stem    string       `json:"stem"`
	Options []OptionView `json:"options,omitempty"`
}

// OptionView carries the canonical option index; students receive the list
// in their own shuffled order but always submit canonical indexes.
type OptionView struct {
	Index     int    `json:"index"`
	Text      string `json:"text"`
	IsCorrect *bool  `json:"is_correct,omitempty"`
}

type AnswerView struct {
	QuestionIndex  uint  `json:"question_index"`
	SelectedOption int   `json:"selected_option"`
	OptionOrder    []int `json:"option_order,omitempty"`
	Answered       bool  `json:"answered"`
}

type TallyView struct {
	QuestionIndex uint          `json:"question_index"`
	Options       []OptionCount `json:"options"`
	Answered      int           `json:"answered"`
	Connected     int           `json:"connected"`
}

type OptionCount struct {
	OptionIndex int `json:"option_index"`
	Count       int `json:"count"`
}

type AnswerReview struct {
	QuestionIndex  uint   `json:"question_index"`
	Stem           string `json:"stem"`
	SelectedOption int    `json:"selected_option"`
	CorrectOption  int    `json:"correct_option"`
	Correct        bool   `json:"correct"`
}

// GetStatus reconstructs the view for a viewer. The match creator gets the
// presenter view, everyone else the student view. Students never see other
// students' selections.
func (s *MatchService) GetStatus(matchID, viewerID uint) (*StatusView, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	return s.buildStatus(match, viewerID, viewerID == match.CreatorID)
}

// RefreshTeacher is the presenter's poll: prunes stale players and reports
// whether an armed countdown has run out, so the UI can trigger the next
// advance.
func (s *MatchService) RefreshTeacher(matchID, actorID uint) (*StatusView, bool, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, false, err
	}
	if match.CreatorID != actorID {
		return nil, false, errs.ErrUnauthorized
	}

	if _, err := s.players.Prune(matchID); err != nil {
		return nil, false, err
	}

	view, err := s.buildStatus(match, actorID, true)
	if err != nil {
		return nil, false, err
	}
	expired := match.Countdown >= 0 && match.CountdownRemaining(time.Now()) == 0
	return view, expired, nil
}

// RefreshStudent is the student's poll: refreshes their membership while the
// match is playing and returns the student view with their own answer state.
func (s *MatchService) RefreshStudent(matchID, userID uint) (*StatusView, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}

	if match.Playing {
		if err := s.players.Join(matchID, userID); err != nil {
			return nil, err
		}
	} else {
		if err := s.players.Touch(matchID, userID); err != nil {
			return nil, err
		}
	}

	return s.buildStatus(match, userID, false)
}

func (s *MatchService) buildStatus(match *models.Match, viewerID uint, presenter bool) (*StatusView, error) {
	numQuestions, err := s.games.CountQuestions(match.GameID)
	if err != nil {
		return nil, err
	}
	numPlayers, err := s.players.Count(match.ID)
	if err != nil {
		return nil, err
	}

	view := &StatusView{
		MatchID:             match.ID,
		GameID:              match.GameID,
		Title:               match.Title,
		Phase:               match.Phase,
		QuestionIndex:       match.QuestionIndex,
		TotalQuestions:      numQuestions,
		Finished:            match.Finished(),
		Playing:             match.Playing,
		Countdown:           match.CountdownRemaining(time.Now()),
		NumCols:             match.NumCols,
		NumPlayers:          numPlayers,
		ShowQuestionResults: match.ShowQuestionResults,
		ShowUserResults:     match.ShowUserResults,
	}

	onQuestion := match.QuestionIndex >= 1 && !match.Finished()
	if onQuestion {
		question, err := s.games.QuestionAt(match.GameID, match.QuestionIndex)
		if err != nil {
			return nil, err
		}
		view.Question = s.buildQuestionView(match, question, viewerID, presenter)

		if !presenter {
			answer, err := s.answers.GetAnswer(match.ID, viewerID, match.QuestionIndex)
			if err != nil {
				return nil, err
			}
			if answer != nil {
				view.MyAnswer = &AnswerView{
					QuestionIndex:  answer.QuestionIndex,
					SelectedOption: answer.SelectedOption,
					OptionOrder:    DecodeOrder(answer.OptionOrder),
					Answered:       answer.Answered(),
				}
			}
		}

		if s.tallyVisible(match, presenter) {
			tally, err := s.buildTally(match, len(question.Options), numPlayers)
			if err != nil {
				return nil, err
			}
			view.Tally = tally
		}
	}

	if !presenter && match.Finished() && match.ShowUserResults {
		review, err := s.buildReview(match, viewerID)
		if err != nil {
			return nil, err
		}
		view.Review = review
	}

	return view, nil
}

func (s *MatchService) buildQuestionView(match *models.Match, question *models.GameQuestion, viewerID uint, presenter bool) *QuestionView {
	qv := &QuestionView{Index: match.QuestionIndex}

	if match.Phase == models.PhaseStem || match.Phase.After(models.PhaseStem) {
		qv.Stem = question.Stem
	}
	if match.Phase != models.PhaseAnswers && !match.Phase.After(models.PhaseAnswers) {
		return qv
	}

	revealCorrect := match.Phase == models.PhaseResults &&
		(presenter || match.ShowQuestionResults)

	options := make([]OptionView, len(question.Options))
	for i, opt := range question.Options {
		options[i] = OptionView{Index: i, Text: opt.Text}
		if revealCorrect {
			correct := opt.IsCorrect
			options[i].IsCorrect = &correct
		}
	}

	if presenter {
		qv.Options = options
		return qv
	}

	// Students see the options in their personal shuffled order.
	order := ShuffledOptions(match.ID, viewerID, match.QuestionIndex, len(options))
	shuffled := make([]OptionView, 0, len(options))
	for _, idx := range order {
		shuffled = append(shuffled, options[idx])
	}
	qv.Options = shuffled
	return qv
}

func (s *MatchService) tallyVisible(match *models.Match, presenter bool) bool {
	if match.Phase != models.PhaseAnswers && match.Phase != models.PhaseResults {
		return false
	}
	return presenter || match.ShowQuestionResults
}

func (s *MatchService) buildTally(match *models.Match, numOptions, connected int) (*TallyView, error) {
	counts, answered, err := s.answers.Tally(match.ID, match.QuestionIndex, numOptions)
	if err != nil {
		return nil, err
	}
	options := make([]OptionCount, numOptions)
	for i, c := range counts {
		options[i] = OptionCount{OptionIndex: i, Count: c}
	}
	return &TallyView{
		QuestionIndex: match.QuestionIndex,
		Options:       options,
		Answered:      answered,
		Connected:     connected,
	}, nil
}

// GetTally returns the aggregate for one question, presenter-only unless
// aggregate visibility is on.
func (s *MatchService) GetTally(matchID, viewerID, questionIndex uint) (*TallyView, error) {
	match, err := s.Get(matchID)
	if err != nil {
		return nil, err
	}
	if match.CreatorID != viewerID && !match.ShowQuestionResults {
		return nil, errs.ErrUnauthorized
	}

	question, err := s.games.QuestionAt(match.GameID, questionIndex)
	if err != nil {
		if errors.Is(err, errs.ErrGameNotFound) {
			return nil, errs.ErrInvalidOption
		}
		return nil, err
	}
	connected, err := s.players.Count(matchID)
	if err != nil {
		return nil, err
	}

	counts, answered, err := s.answers.Tally(matchID, questionIndex, len(question.Options))
	if err != nil {
		return nil, err
	}
	options := make([]OptionCount, len(counts))
	for i, c := range counts {
		options[i] = OptionCount{OptionIndex: i, Count: c}
	}
	return &TallyView{
		QuestionIndex: questionIndex,
		Options:       options,
		Answered:      answered,
		Connected:     connected,
	}, nil
}

func (s *MatchService) buildReview(match *models.Match, userID uint) ([]AnswerReview, error) {
	questions, err := s.games.Questions(match.GameID)
	if err != nil {
		return nil, err
	}

	review := make([]AnswerReview, 0, len(questions))
	for i, q := range questions {
		index := uint(i + 1)
		correctOption := models.NoOptionSelected
		for j, opt := range q.Options {
			if opt.IsCorrect {
				correctOption = j
				break
			}
		}

		entry := AnswerReview{
			QuestionIndex:  index,
			Stem:           q.Stem,
			SelectedOption: models.NoOptionSelected,
			CorrectOption:  correctOption,
		}
		answer, err := s.answers.GetAnswer(match.ID, userID, index)
		if err != nil {
			return nil, err
		}
		if answer != nil {
			entry.SelectedOption = answer.SelectedOption
			entry.Correct = answer.Answered() && answer.SelectedOption == correctOption
		}
		review = append(review, entry)
	}
	return review, nil
}
