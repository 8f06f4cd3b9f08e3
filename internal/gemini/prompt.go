package gemini

// SystemInstruction frames the model as a work zone safety inspector.
// Kept separate from the per-image prompt so it is sent once per session.
const SystemInstruction = `You are an MTO-certified work zone safety inspector analyzing highway
construction zone images. You follow Ontario's MTO BOOK 7 standards
(Ontario Traffic Manual - Temporary Conditions) and you respond only with
valid JSON, never markdown.`

// AnalysisPrompt is sent with every camera frame. The JSON schema at the
// bottom is what the client parses; the risk scale bands map directly to
// broadcast priorities downstream.
const AnalysisPrompt = `Perform a comprehensive safety analysis of this highway camera image.

ANALYZE THE IMAGE FOR:

1. WORK ZONE PRESENCE
   - Is there an active construction work zone visible?
   - Confidence level (0.0-1.0)

2. WORKER SAFETY ELEMENTS (if work zone present)
   - How many workers are visible?
   - High-visibility clothing and hard hats
   - Safety barriers between workers and live traffic

3. TRAFFIC CONTROL DEVICES
   - Advance warning signs, channelizing devices, arrow boards
   - Reduced speed limit signage

4. VEHICLE AND EQUIPMENT SAFETY
   - Construction vehicles present and positioned safely
   - Flashing amber lights, shadow vehicle protection

5. RISK ASSESSMENT
   - Risk score on a 1-10 scale:
     * 1-3: COMPLIANT (all safety measures present)
     * 4-6: MINOR NON-COMPLIANCE (1-2 issues)
     * 7-8: MAJOR NON-COMPLIANCE (multiple violations)
     * 9-10: CRITICAL VIOLATION (imminent danger)

6. COMPLIANCE
   - List any violations detected and specific hazards

7. RECOMMENDATIONS
   - Immediate actions required for high risk scores

OUTPUT FORMAT (JSON only, no markdown):
{
  "hasWorkZone": boolean,
  "confidence": 0.0-1.0,
  "riskScore": 1-10,
  "workers": number,
  "vehicles": number,
  "barriers": boolean,
  "hazards": ["..."],
  "violations": ["..."],
  "recommendations": ["..."]
}

Respond ONLY with valid JSON. No markdown, no code blocks, just raw JSON.`
