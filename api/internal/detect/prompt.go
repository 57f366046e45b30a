package detect

// DefaultPrompt: сначала проверка «есть ли машина», потом список повреждений.
const DefaultPrompt = `Analyze this image.

Step 1: Determine if the image contains a vehicle (car, truck, SUV, van).
- If NO vehicle is detected, return JSON: {"is_car": false, "damages": []}

Step 2: If a vehicle IS detected, identify ALL visible exterior damages.
- CRITICAL: actively look for and explicitly list specific broken components separately.

You must check for and list:
- Broken Headlights / Taillights
- Broken / Cracked / Missing Side Mirrors
- Cracked / Shattered Glass (Windshield, Windows)
- Dents/Scratches on specific panels (Hood, Bumper, Fenders, Doors)
- Misaligned panels or Grille damage

Return the result as a JSON object:
{
    "is_car": true,
    "damages": [
        {
            "label": "Specific description",
            "box_2d": [ymin, xmin, ymax, xmax],
            "score": 0.0 to 1.0
        }
    ]
}
box_2d values are on a 0-1000 scale relative to the image.

If valid vehicle but no damage, return {"is_car": true, "damages": []}
IMPORTANT: Return ONLY valid JSON. Do not use markdown code blocks.`
