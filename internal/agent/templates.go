package agent

const examAnalysisTemplate = `## ✅ Resumo geral do exame

Este é um hemograma completo, com análise de células sanguíneas e marcadores bioquímicos básicos.

## 📊 Principais resultados

- **Hemoglobina**: 14.2 g/dL (normal)
- **Leucócitos**: 6.500/mm³ (normal)
- **Plaquetas**: 230.000/mm³ (normal)
- **Glicose**: 92 mg/dL (normal)
- **Colesterol total**: **210 mg/dL** (levemente elevado)

## ⚠️ Alertas e observações

O colesterol total está ligeiramente acima do valor de referência (< 200 mg/dL), mas não representa um risco imediato.

## 💡 Possíveis causas ou hipóteses

O colesterol elevado pode estar relacionado a fatores dietéticos, sedentarismo ou predisposição genética.

## 🩺 Recomendações gerais

É recomendável adotar uma alimentação mais equilibrada, rica em fibras e pobre em gorduras saturadas. A prática regular de atividades físicas também é importante para o controle do colesterol.

Esta análise não substitui a consulta com um profissional de saúde. Procure orientação médica presencial para interpretação completa e conduta adequada.`

const examFollowUpTemplate = `Com base no seu exame, posso responder que {{input}}

Os valores de referência para o colesterol total são:
- Desejável: abaixo de 200 mg/dL
- Limítrofe: entre 200 e 239 mg/dL
- Elevado: acima de 240 mg/dL

Seu valor de 210 mg/dL está na faixa limítrofe, o que sugere atenção, mas não representa um risco imediato para a saúde. É recomendável adotar hábitos alimentares mais saudáveis e praticar exercícios físicos regularmente para reduzir esses níveis.

Esta resposta não substitui a consulta com um profissional de saúde.`

const medicationInfoTemplate = `# {{input}}

## Descrição geral e propósito
Este medicamento é comumente utilizado para o tratamento de diversos sintomas, incluindo dores de cabeça, febre e inflamações.

## Princípios ativos principais
Contém componentes ativos que ajudam a reduzir a dor e a inflamação no corpo.

## Indicações de uso
Indicado para alívio temporário de dores leves a moderadas e redução de febre.

## Contraindicações
Não deve ser utilizado por pessoas com hipersensibilidade aos componentes da fórmula ou com histórico de reações alérgicas a medicamentos similares.

## Efeitos colaterais comuns
Pode causar desconforto estomacal, náuseas e, em casos raros, reações alérgicas.

## Interações medicamentosas relevantes
Pode interagir com anticoagulantes, aumentando o risco de sangramentos. Consulte um médico se estiver tomando outros medicamentos.

## Dosagem típica
A dosagem comum para adultos é de 1 comprimido a cada 6-8 horas, não excedendo 4 comprimidos em 24 horas.

## Precauções especiais
Use com cautela em pacientes com problemas hepáticos, renais ou gastrointestinais. Não é recomendado para uso prolongado sem supervisão médica.

Esta informação tem caráter educativo e não substitui a orientação de um profissional de saúde ou a bula oficial do medicamento.`

const medicationPricesTemplate = `# Preços para {{input}}

## Faixa de preços
O preço deste medicamento varia entre R$ 12,90 e R$ 45,50, dependendo da versão (genérico, similar ou referência) e da farmácia.

## Preço médio aproximado
O preço médio encontrado é de R$ 28,70.

## Diferenças entre versões
- **Genérico**: Entre R$ 12,90 e R$ 19,50
- **Similar**: Entre R$ 20,00 e R$ 30,00
- **Referência**: Entre R$ 35,00 e R$ 45,50

## Sugestões para economizar
- Compare preços em diferentes farmácias antes de comprar
- Verifique programas de desconto oferecidos pelos fabricantes
- Considere a versão genérica, que é mais barata e tem a mesma eficácia
- Procure farmácias populares, que oferecem preços subsidiados

## Onde encontrar os melhores preços
As melhores ofertas foram encontradas nas redes Drogasil, Pague Menos e Droga Raia.

Os preços podem variar de acordo com a região e período de consulta.

## Links para Compra
1. [{{input}} Genérico 20mg](https://www.example.com) - R$ 12,90
2. [{{input}} Similar 20mg](https://www.example.com) - R$ 22,50
3. [{{input}} Referência 20mg](https://www.example.com) - R$ 39,90`

const generalQuestionTemplate = `Em relação à sua pergunta: "{{input}}"

É importante entender que diversas condições de saúde podem apresentar sintomas semelhantes. Alterações no estilo de vida, como uma alimentação equilibrada, prática regular de exercícios físicos e redução do estresse, podem ajudar a melhorar sua saúde geral.

Recomendo consultar um profissional de saúde para uma avaliação adequada, diagnóstico preciso e tratamento personalizado.

Esta informação tem caráter geral e educativo, não substituindo a consulta com um profissional de saúde qualificado.`
