package domain

// SuggestedQuestions are offered to the user for any analyzed article.
var SuggestedQuestions = []string{
	"¿Cuál es la idea principal del artículo?",
	"¿Por qué es importante este tema?",
	"¿Cuáles son los puntos clave o argumentos principales?",
	"¿Qué evidencias o ejemplos presenta el artículo?",
	"¿Cuáles son las implicaciones o consecuencias de lo que se plantea?",
	"¿Qué preguntas o dudas quedan abiertas después de leerlo?",
}
