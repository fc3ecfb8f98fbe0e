package translation

import (
	"fmt"

	"github.com/medtranslate/server/domain/entities"
	"github.com/medtranslate/server/domain/repositories"
)

const systemPrompt = `You are a professional medical translator for healthcare conversations between doctors and patients.

Your role is to translate messages accurately while:
1. Preserving medical terminology precisely (e.g., "hypertension", "diabetes", "allergy")
2. Maintaining appropriate tone - formal for doctor-patient communication
3. Being clear and concise - avoid over-explaining
4. Keeping the translation natural for the target language

Translate ONLY the text provided. Do not add explanations or notes.`

var languageNames = map[entities.Language]string{
	entities.LanguageEnglish:    "English",
	entities.LanguageSpanish:    "Spanish",
	entities.LanguageChinese:    "Chinese",
	entities.LanguageVietnamese: "Vietnamese",
	entities.LanguageKorean:     "Korean",
	entities.LanguageArabic:     "Arabic",
	entities.LanguageFrench:     "French",
}

func languageName(lang entities.Language) string {
	if name, ok := languageNames[lang]; ok {
		return name
	}
	return string(lang)
}

func translationPrompt(source, target entities.Language, text string) []repositories.ChatMessage {
	userPrompt := fmt.Sprintf(`Translate the following %s text to %s:

%s

Provide only the translation, no explanation.`, languageName(source), languageName(target), text)

	return []repositories.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userPrompt},
	}
}
