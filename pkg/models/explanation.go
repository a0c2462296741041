package models

// Explanation is the structured description a language model returns for a word
type Explanation struct {
	Word        string       `json:"word"`
	Phonetic    string       `json:"phonetic"`
	Definitions []Definition `json:"definitions"`
	Examples    []Example    `json:"examples"`
	Etymology   string       `json:"etymology"`
}
