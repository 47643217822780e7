package identity

// ChallengeQuestions is the fixed list a customer picks a security question from
var ChallengeQuestions = []string{
	"What city were you born in?",
	"What is your favorite color?",
	"What was your first car?",
	"What was the name of your first pet?",
	"What is your favorite childhood movie?",
}

// ChallengeQuestion returns the question at index, or false when out of range
func ChallengeQuestion(index int) (string, bool) {
	if index < 0 || index >= len(ChallengeQuestions) {
		return "", false
	}
	return ChallengeQuestions[index], true
}

// Challenge is a security question with the hash of its answer
type Challenge struct {
	Question   string
	AnswerHash string
}
