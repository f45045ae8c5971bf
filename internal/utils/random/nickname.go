package random

import "fmt"

var (
	adjectives = []string{
		"clever", "jolly", "brave", "sly", "gentle", "swift", "quiet", "bold",
		"calm", "eager", "fuzzy", "happy", "keen", "lucky", "merry", "noble",
	}
	nouns = []string{
		"panda", "fox", "raccoon", "koala", "lion", "otter", "falcon", "badger",
		"heron", "lynx", "moose", "owl", "puffin", "seal", "tiger", "wolf",
	}
)

// Nickname returns a name of the form adjective_noun_NNN.
func Nickname() (string, error) {
	adj, err := Pick(adjectives)
	if err != nil {
		return "", err
	}
	noun, err := Pick(nouns)
	if err != nil {
		return "", err
	}
	n, err := Intn(1000)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%03d", adj, noun, n), nil
}
