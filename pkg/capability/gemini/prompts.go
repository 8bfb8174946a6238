package gemini

const peoplePrompt = `You review background photography for retail advertising.
Decide whether any real person (face, body or recognizable body part) is visible in the image.
Answer ONLY with JSON: {"detected": bool, "count": int, "confidence": number between 0 and 1}.`

const lockupPrompt = `You check alcohol advertising creatives for the mandatory Drinkaware lockup.
The lockup must be present, legible, unobstructed and rendered in solid black or solid white.
Answer ONLY with JSON: {"valid": bool, "issues": [string]}. List every problem you find in "issues";
use an empty list when the lockup is valid.`

const packshotPrompt = `You count product packshots in a retail advertising creative.
A packshot is a photograph of a retail product pack. The lead packshot is the largest, most prominent one.
Answer ONLY with JSON: {"count": int, "hasLead": bool, "issues": [string]}.`

const entailmentPrompt = `You are a natural language inference classifier.
Decide whether the PREMISE entails the HYPOTHESIS. Judge meaning, not wording.
Answer ONLY with JSON: {"entails": bool, "confidence": number between 0 and 1}.`
